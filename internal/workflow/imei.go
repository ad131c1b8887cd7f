package workflow

// ValidIMEI accepts exactly 15 digits. Featured catalog entries carry no IMEI
// and skip this check entirely.
func ValidIMEI(s string) bool {
	if len(s) != 15 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
