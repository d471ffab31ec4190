package notify

type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"billing@trialbill.dev"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@trialbill.dev"`
	AppName              string `env:"APP_NAME" envDefault:"TrialBill"`
	AppURL               string `env:"APP_URL" envDefault:"http://localhost:8080"`
}

// PostmarkEnabled reports whether Postmark credentials are present.
func (c Config) PostmarkEnabled() bool {
	return c.PostmarkServerToken != ""
}
