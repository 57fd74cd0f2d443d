package email

// Config holds email delivery settings. Postmark tokens may be empty in
// development, where DevDir receives rendered messages instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@localhost.localdomain"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@localhost.localdomain"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`

	// Links in outgoing mail are built from these.
	AppBaseURL        string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	VerifyEmailPath   string `env:"APP_VERIFY_EMAIL_PATH" envDefault:"/verify-email"`
	ResetPasswordPath string `env:"APP_RESET_PASSWORD_PATH" envDefault:"/reset-password"`
}
