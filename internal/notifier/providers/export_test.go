package providers

import "net/smtp"

// SetSendMail replaces the SMTP transport until the returned func is called
func SetSendMail(f func(addr string, a smtp.Auth, from string, to []string, msg []byte) error) (restore func()) {
	prev := sendMail
	sendMail = f
	return func() { sendMail = prev }
}
