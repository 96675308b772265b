package notify

// NormalizePhone converts a local phone number to international format.
// Bare 10-digit numbers are assumed to be Indian mobile numbers.
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	if phone[0] == '+' {
		return phone
	}
	if len(phone) == 12 && phone[:2] == "91" {
		return "+" + phone
	}
	return "+91" + phone
}
