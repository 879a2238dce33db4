package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:5173"`

	Database Database `envPrefix:"DB_"`
	Auth     Auth     `envPrefix:"AUTH_"`
	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Pricing  Pricing
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"postgres"` // postgres, mysql, sqlite
	URL    string `env:"URL"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
	// GuestMode injects a fixed guest identity instead of verifying tokens.
	GuestMode bool `env:"GUEST_MODE" envDefault:"false"`
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	Currency      string `env:"CURRENCY" envDefault:"eur"`
}

type Pricing struct {
	CartTaxRate     string `env:"CART_TAX_RATE" envDefault:"0.05"`
	CheckoutVATRate string `env:"CHECKOUT_VAT_RATE" envDefault:"0.05"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
