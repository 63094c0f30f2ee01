package model

// ================ Config ================

type ServerConfig struct {
	Host    string `envconfig:"ACTIONS_HOST" default:"0.0.0.0"`
	Port    int    `envconfig:"ACTIONS_PORT" default:"5055"`
	GinMode string `envconfig:"GIN_MODE" default:"release"`
}

type StoreConfig struct {
	Backend   string `envconfig:"STORE_BACKEND" default:"memory"`
	TTL       string `envconfig:"STORE_TTL" default:"168h"`
	KeyPrefix string `envconfig:"STORE_KEY_PREFIX" default:"placefinder"`
}

type SearchConfig struct {
	PageSize            int     `envconfig:"SEARCH_PAGE_SIZE" default:"5"`
	MaxResults          int     `envconfig:"SEARCH_MAX_RESULTS" default:"15"`
	LocationMinDistance float64 `envconfig:"LOCATION_MIN_DISTANCE" default:"1000"`
	ParkingMaxDistance  float64 `envconfig:"PARKING_MAX_DISTANCE" default:"500"`
}

type BookingConfig struct {
	MaxPeople    int `envconfig:"BOOKING_MAX_PEOPLE" default:"10"`
	MaxDaysAhead int `envconfig:"BOOKING_MAX_DAYS_AHEAD" default:"28"`
}

type FallbackModelConfig struct {
	Model          string  `envconfig:"FALLBACK_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"FALLBACK_MAX_TOKENS" default:"512"`
	Temperature    float32 `envconfig:"FALLBACK_TEMPERATURE" default:"0.4"`
	MaxTurns       int     `envconfig:"FALLBACK_MAX_TURNS" default:"6"`
	ThinkingBudget int32   `envconfig:"FALLBACK_THINKING_BUDGET" default:"0"`
}

type AlexaConfig struct {
	Enabled     bool   `envconfig:"ALEXA_ENABLED" default:"false"`
	Host        string `envconfig:"ALEXA_HOST" default:"0.0.0.0"`
	Port        int    `envconfig:"ALEXA_PORT" default:"5056"`
	RasaURL     string `envconfig:"RASA_URL" default:"http://localhost:5005"`
	RasaTimeout int    `envconfig:"RASA_TIMEOUT" default:"10"`
	SpellCheck  bool   `envconfig:"ALEXA_SPELLCHECK" default:"false"`
}
