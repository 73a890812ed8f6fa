package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASS"`
	MailFrom     string `env:"MAIL_FROM"`
	OwnerEmail   string `env:"OWNER_EMAIL"`

	AdminUsername     string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH,required"` // bcrypt
	SessionSecret     string `env:"SESSION_SECRET,required"`

	OCRModel string `env:"GEMINI_OCR_MODEL" envDefault:"gemini-2.5-flash"`

	// PaymentTag is the handle buyers are told to pay; fallbacks cover older
	// handles that may still appear on screenshots.
	PaymentTag         string   `env:"PAYMENT_TAG,required"`
	FallbackTags       []string `env:"PAYMENT_TAG_FALLBACKS" envSeparator:","`
	CandidateThreshold int      `env:"MATCH_CANDIDATE_THRESHOLD" envDefault:"70"`
	ConfidentThreshold int      `env:"MATCH_CONFIDENT_THRESHOLD" envDefault:"85"`
	TagMatchThreshold  int      `env:"TAG_MATCH_THRESHOLD" envDefault:"80"`
	EntropyCutoff      float64  `env:"ENTROPY_CUTOFF" envDefault:"3.5"`

	// 0 keeps flagged image hashes forever; purging is admin-driven.
	FlaggedHashMaxAgeDays int `env:"FLAGGED_HASH_MAX_AGE_DAYS" envDefault:"0"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
