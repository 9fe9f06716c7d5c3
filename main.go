package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"tech-pulse/cache"
	"tech-pulse/config"
	"tech-pulse/models"
	"tech-pulse/providers"
	"tech-pulse/providers/jsonfile"
	"tech-pulse/services"
	"tech-pulse/storage"
	"tech-pulse/topicmodel"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	newDocumentsCounter prometheus.Counter
	trainRunsCounter    prometheus.Counter
	updateRunsCounter   prometheus.Counter
)

func init() {
	newDocumentsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "new_documents_added_total",
			Help: "Total number of new documents added to the database.",
		},
	)
	trainRunsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "topic_model_train_runs_total",
			Help: "Total number of completed full retrains.",
		},
	)
	updateRunsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "topic_model_update_runs_total",
			Help: "Total number of completed incremental updates.",
		},
	)
	prometheus.MustRegister(newDocumentsCounter, trainRunsCounter, updateRunsCounter)
}

// runCounterFor wählt den Zähler nach dem tatsächlich gelaufenen Modus:
// ein Update, das in ein volles Retrain bootstrapt, zählt als Retrain.
func runCounterFor(result *services.RunResult) prometheus.Counter {
	if result.Mode == "train" {
		return trainRunsCounter
	}
	return updateRunsCounter
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to corpus database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(&models.Topic{}, &models.Document{}, &models.TemporalFrequency{}, &models.JobRun{})

	// Setup Embedder (lokales Hashing oder externer Dienst)
	var embedder topicmodel.Embedder
	if cfg.EmbeddingBaseURL != "" {
		embedder = topicmodel.NewRemoteEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
		logging.Info("Using remote embedding service", zap.String("base_url", cfg.EmbeddingBaseURL))
	} else {
		embedder = topicmodel.NewHashingEmbedder(cfg.EmbeddingDim)
		logging.Info("Using local hashing embedder", zap.Int("dim", cfg.EmbeddingDim))
	}

	// Optionales S3-Backup des Modell-Blobs
	var backup services.BlobUploader
	if cfg.S3Enabled() {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		backup = storage.NewModelBackup(s3Client, cfg.ModelS3Bucket)
		logging.Info("Model blob backup to S3 enabled", zap.String("bucket", cfg.ModelS3Bucket))
	}

	// Setup Services
	pipeline := services.NewPipeline(cfg, db, logging, embedder, backup)

	sources := []providers.Source{
		jsonfile.NewSource("articles-file", cfg.ArticlesFile, models.SourceTypeArticle, logging),
		jsonfile.NewSource("videos-file", cfg.VideosFile, models.SourceTypeVideo, logging),
	}
	ingest := services.NewIngestService(db, logging, sources)

	// Optionaler Redis-Cache für die Temporal-Abfragen
	var temporalCache *cache.TemporalCache
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logging.Warn("Redis not reachable, temporal cache disabled", zap.Error(err))
		} else {
			temporalCache = cache.NewTemporalCache(redisClient, cfg.RedisTTL)
			logging.Info("Temporal query cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Setup Routes
	setupPipelineRoutes(router, pipeline, ingest, temporalCache, logging)
	setupTopicRoutes(router, db, temporalCache, logging)
	setupDocumentRoutes(router, db, ingest, logging)

	// Setup Scheduler mit persistiertem Last-Run-Bookkeeping
	scheduler := services.NewScheduler(db, logging)
	scheduler.Register(services.Job{
		Name:     "ingest_data",
		Spec:     cfg.IngestSchedule,
		Interval: cfg.IngestInterval,
		Run: func(ctx context.Context) error {
			count, err := ingest.Run(ctx)
			if err != nil {
				return err
			}
			newDocumentsCounter.Add(float64(count))
			return nil
		},
	})
	scheduler.Register(services.Job{
		Name:     "update_model",
		Spec:     cfg.UpdateSchedule,
		Interval: cfg.UpdateInterval,
		Run: func(ctx context.Context) error {
			result, err := pipeline.RunIncrementalUpdate(ctx)
			if err != nil {
				return err
			}
			if !result.NoOp {
				runCounterFor(result).Inc()
				invalidateTemporalCache(ctx, temporalCache, logging)
			}
			return nil
		},
	})
	scheduler.Start()
	defer scheduler.Stop()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func invalidateTemporalCache(ctx context.Context, temporalCache *cache.TemporalCache, log *zap.Logger) {
	if temporalCache == nil {
		return
	}
	if err := temporalCache.Invalidate(ctx); err != nil {
		log.Warn("Temporal cache invalidation failed", zap.Error(err))
	}
}

func setupPipelineRoutes(router *gin.Engine, pipeline *services.Pipeline, ingest *services.IngestService, temporalCache *cache.TemporalCache, log *zap.Logger) {
	rg := router.Group("/api")

	// Volles Retrain: ingestiert vorher einmal, damit die Datenbank gefüllt ist.
	rg.POST("/train", func(c *gin.Context) {
		if count, err := ingest.Run(c.Request.Context()); err != nil {
			log.Error("Ingestion before training failed", zap.Error(err))
		} else {
			newDocumentsCounter.Add(float64(count))
		}

		result, err := pipeline.RunBatchTrain(c.Request.Context())
		if err != nil {
			if errors.Is(err, services.ErrTrainingInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": "Training is already in progress."})
				return
			}
			log.Error("Batch training failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "training failed"})
			return
		}
		if !result.NoOp {
			runCounterFor(result).Inc()
			invalidateTemporalCache(c.Request.Context(), temporalCache, log)
		}
		c.JSON(http.StatusAccepted, result)
	})

	rg.POST("/update", func(c *gin.Context) {
		result, err := pipeline.RunIncrementalUpdate(c.Request.Context())
		if err != nil {
			if errors.Is(err, services.ErrTrainingInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": "Training is already in progress."})
				return
			}
			log.Error("Incremental update failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
		if !result.NoOp {
			runCounterFor(result).Inc()
			invalidateTemporalCache(c.Request.Context(), temporalCache, log)
		}
		c.JSON(http.StatusAccepted, result)
	})
}

func setupTopicRoutes(router *gin.Engine, db *gorm.DB, temporalCache *cache.TemporalCache, log *zap.Logger) {
	rg := router.Group("/api/topics")

	rg.GET("/", func(c *gin.Context) {
		skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

		var topics []models.Topic
		if err := db.Order("count desc").Offset(skip).Limit(limit).Find(&topics).Error; err != nil {
			log.Error("Database query for topics failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, topics)
	})

	// Topic-Häufigkeit über die Zeit, umgeformt für Charting-Libraries:
	// eine Zeile pro Tag mit {topicName: frequency}.
	rg.GET("/temporal", func(c *gin.Context) {
		ctx := c.Request.Context()
		if temporalCache != nil {
			if rows, hit, err := temporalCache.Get(ctx); err == nil && hit {
				c.JSON(http.StatusOK, rows)
				return
			}
		}

		var temporal []models.TemporalFrequency
		if err := db.Order("timestamp").Find(&temporal).Error; err != nil {
			log.Error("Database query for temporal data failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		var topics []models.Topic
		if err := db.Find(&topics).Error; err != nil {
			log.Error("Database query for topic names failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		topicNames := make(map[int]string, len(topics))
		for _, t := range topics {
			topicNames[t.ID] = t.Name
		}

		// Gruppieren nach Tag, Reihenfolge der ersten Sichtung beibehalten.
		var order []string
		grouped := make(map[string]map[string]interface{})
		for _, item := range temporal {
			ts := item.Timestamp.Format("2006-01-02")
			row, ok := grouped[ts]
			if !ok {
				row = map[string]interface{}{"timestamp": ts}
				grouped[ts] = row
				order = append(order, ts)
			}
			if name, ok := topicNames[item.TopicID]; ok {
				row[name] = item.Frequency
			}
		}

		rows := make([]map[string]interface{}, 0, len(order))
		for _, ts := range order {
			rows = append(rows, grouped[ts])
		}

		if temporalCache != nil {
			if err := temporalCache.Set(ctx, rows); err != nil {
				log.Warn("Temporal cache write failed", zap.Error(err))
			}
		}
		c.JSON(http.StatusOK, rows)
	})
}

func setupDocumentRoutes(router *gin.Engine, db *gorm.DB, ingest *services.IngestService, log *zap.Logger) {
	rg := router.Group("/api/documents")

	rg.GET("/:topic_id", func(c *gin.Context) {
		topicID, err := strconv.Atoi(c.Param("topic_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid topic id"})
			return
		}

		var documents []models.Document
		if err := db.Where("topic_id = ?", topicID).Find(&documents).Error; err != nil {
			log.Error("Database query for documents failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if len(documents) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "No documents found for this topic"})
			return
		}
		c.JSON(http.StatusOK, documents)
	})

	// Bulk-Ingestion externer Batches; Duplikate per URL werden ignoriert.
	rg.POST("/", func(c *gin.Context) {
		type ingestRecord struct {
			URL         string    `json:"url" binding:"required"`
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"published_at" binding:"required"`
			FullContent string    `json:"full_content" binding:"required"`
			SourceType  string    `json:"source_type" binding:"required,oneof=article video"`
		}

		var records []ingestRecord
		if err := c.ShouldBindJSON(&records); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		docs := make([]models.Document, len(records))
		for i, r := range records {
			docs[i] = models.Document{
				URL:         r.URL,
				Title:       r.Title,
				PublishedAt: r.PublishedAt,
				FullContent: r.FullContent,
				SourceType:  r.SourceType,
			}
		}

		created, err := ingest.BulkCreate(c.Request.Context(), docs)
		if err != nil {
			log.Error("Bulk document insert failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create documents"})
			return
		}
		newDocumentsCounter.Add(float64(created))
		c.JSON(http.StatusCreated, gin.H{"created": created})
	})
}
