package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"8000"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Pfad des persistierten Topic-Modells (opaker Blob, wird in-place überschrieben).
	ModelPath string `envconfig:"MODEL_PATH" default:"model/topic_model.gob"`

	// Dateien mit vorgescrapten Rohdaten (Artikel + Video-Transkripte).
	ArticlesFile string `envconfig:"ARTICLES_FILE" default:"indian_tech_articles.json"`
	VideosFile   string `envconfig:"VIDEOS_FILE" default:"indian_tech_videos.json"`

	// Cron-Pläne für Ingestion und Modell-Update.
	IngestSchedule string `envconfig:"INGEST_SCHEDULE" default:"0 */6 * * *"`
	UpdateSchedule string `envconfig:"UPDATE_SCHEDULE" default:"0 0 * * *"`
	// Intervalle fürs Nachholen verpasster Läufe nach einem Neustart.
	IngestInterval time.Duration `envconfig:"INGEST_INTERVAL" default:"6h"`
	UpdateInterval time.Duration `envconfig:"UPDATE_INTERVAL" default:"24h"`

	// Parameter des Topic-Modells.
	Seed          int64 `envconfig:"MODEL_SEED" default:"42"`
	EmbeddingDim  int   `envconfig:"EMBEDDING_DIM" default:"256"`
	ProjectionDim int   `envconfig:"PROJECTION_DIM" default:"32"`
	NumTopics     int   `envconfig:"NUM_TOPICS" default:"8"`
	MinTopicSize  int   `envconfig:"MIN_TOPIC_SIZE" default:"2"`
	TopicKeywords int   `envconfig:"TOPIC_KEYWORDS" default:"10"`
	TemporalBins  int   `envconfig:"TEMPORAL_BINS" default:"20"`
	// Zusätzliche Füllwörter, die nie als Topic-Keyword auftauchen dürfen.
	ExtraStopWords []string `envconfig:"EXTRA_STOP_WORDS"`

	// Optionaler externer Embedding-Dienst (OpenAI-kompatibel). Leer = lokales Hashing.
	EmbeddingBaseURL string `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingAPIKey  string `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingModel   string `envconfig:"EMBEDDING_MODEL" default:"all-MiniLM-L6-v2"`

	// Optionaler Redis-Cache für die Temporal-Abfragen. Leer = kein Cache.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	RedisTTL      time.Duration `envconfig:"REDIS_TTL" default:"60s"`

	// Optionales S3-Backup des Modell-Blobs nach jedem erfolgreichen Save.
	ModelS3Key    string `envconfig:"MODEL_S3_KEY"`
	ModelS3Secret string `envconfig:"MODEL_S3_SECRET"`
	ModelS3URL    string `envconfig:"MODEL_S3_URL"`
	ModelS3Region string `envconfig:"MODEL_S3_REGION"`
	ModelS3Bucket string `envconfig:"MODEL_S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// S3Enabled meldet, ob das Modell-Backup nach S3 konfiguriert ist.
func (c *Config) S3Enabled() bool {
	return c.ModelS3Bucket != "" && c.ModelS3URL != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
