package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Runtime configuration, loaded once at startup from the environment.
var (
	Port string

	// LLM provider. OpenAI is preferred when its key is present,
	// otherwise DeepSeek through its OpenAI-compatible endpoint.
	OpenAIKey   string
	DeepSeekKey string
	UseOpenAI   bool
	LLMKey      string
	LLMModel    string
	LLMBaseURL  string

	// Amadeus flight/hotel APIs. Optional; mock data is used when absent.
	AmadeusClientID     string
	AmadeusClientSecret string
	AmadeusEnvironment  string

	// Google Places / Geocoding. Optional; enrichment is skipped when absent.
	GooglePlacesKey    string
	GoogleGeocodingKey string

	JwtSecret []byte

	SessionTTL time.Duration
)

const deepSeekBaseURL = "https://api.deepseek.com"

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	Port = os.Getenv("PORT")
	if Port == "" {
		Port = ":8080"
	} else if Port[0] != ':' {
		Port = ":" + Port
	}

	OpenAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	DeepSeekKey = strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY"))
	UseOpenAI = OpenAIKey != ""
	if UseOpenAI {
		LLMKey = OpenAIKey
		LLMBaseURL = ""
		LLMModel = envDefault("LLM_MODEL", "gpt-4o-mini")
	} else {
		LLMKey = DeepSeekKey
		LLMBaseURL = deepSeekBaseURL
		LLMModel = envDefault("LLM_MODEL", "deepseek-chat")
	}

	AmadeusClientID = os.Getenv("AMADEUS_CLIENT_ID")
	AmadeusClientSecret = os.Getenv("AMADEUS_CLIENT_SECRET")
	AmadeusEnvironment = envDefault("AMADEUS_ENVIRONMENT", "test")

	GooglePlacesKey = strings.TrimSpace(os.Getenv("GOOGLE_PLACES_API_KEY"))
	GoogleGeocodingKey = strings.TrimSpace(os.Getenv("GOOGLE_GEOCODING_API_KEY"))
	if GoogleGeocodingKey == "" {
		GoogleGeocodingKey = GooglePlacesKey
	}

	JwtSecret = []byte(envDefault("JWT_SECRET", "your_secret_key"))

	SessionTTL = 30 * time.Minute
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			SessionTTL = d
		} else {
			log.Printf("Invalid SESSION_TTL %q, keeping %v", raw, SessionTTL)
		}
	}
}

// Validate checks that the required keys are set. The Amadeus and Google
// keys are optional: the flight/hotel clients fall back to generated data
// and place enrichment is skipped.
func Validate() error {
	if LLMKey == "" {
		return errors.New("either OPENAI_API_KEY or DEEPSEEK_API_KEY must be set")
	}
	if AmadeusClientID == "" || AmadeusClientSecret == "" {
		log.Println("AMADEUS_CLIENT_ID or AMADEUS_CLIENT_SECRET not set - using generated flight/hotel data")
	}
	if GooglePlacesKey == "" {
		log.Println("GOOGLE_PLACES_API_KEY not set - location enrichment will be limited")
	}
	return nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
