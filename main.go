package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"abcretail/internal/forms"
	"abcretail/internal/handlers"
	"abcretail/internal/models"
	"abcretail/internal/services"
	"abcretail/internal/storage"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("ENTITY_BACKEND", "memory") // memory | sqlite | postgres
	viper.SetDefault("SQLITE_PATH", "abcretail.db")
	viper.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=abcretail port=5432 sslmode=disable")
	viper.SetDefault("FILE_BACKEND", "memory") // memory | azure
	viper.SetDefault("AZURE_STORAGE_ACCOUNT", "")
	viper.SetDefault("AZURE_STORAGE_KEY", "")
	viper.SetDefault("AZURE_BLOB_ENDPOINT", "")
	viper.SetDefault("AZURE_FILE_ENDPOINT", "")
	viper.SetDefault("PRODUCT_IMAGE_CONTAINER", "product-images")
	viper.SetDefault("PAYMENT_PROOF_CONTAINER", "payment-proofs")
	viper.SetDefault("CONTRACTS_SHARE", "contracts")
	viper.SetDefault("PAYMENTS_DIRECTORY", "payments")
	viper.SetDefault("PRICE_DECIMAL_SEPARATOR", ".")
	viper.SetDefault("PRICE_THOUSANDS_SEPARATOR", ",")
	viper.SetDefault("PRICE_CURRENCY_SYMBOL", "$")
	viper.SetDefault("REQUEST_TIMEOUT", 10*time.Second)
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")
	requestTimeout := viper.GetDuration("REQUEST_TIMEOUT")

	// --- Entity Store ---
	productStore, err := newProductStore()
	if err != nil {
		log.Fatalf("Failed to initialize entity store: %v", err)
	}

	// --- Blob + File-Share Stores ---
	blobStore, shareStore, err := newFileStores()
	if err != nil {
		log.Fatalf("Failed to initialize file stores: %v", err)
	}

	// --- Storage Facade ---
	storageService := services.NewStorageService(productStore, blobStore, shareStore, services.StorageConfig{
		ProductImageContainer: viper.GetString("PRODUCT_IMAGE_CONTAINER"),
		PaymentProofContainer: viper.GetString("PAYMENT_PROOF_CONTAINER"),
		ContractsShare:        viper.GetString("CONTRACTS_SHARE"),
		PaymentsDirectory:     viper.GetString("PAYMENTS_DIRECTORY"),
	})

	// Explicit price format instead of process-wide culture state.
	priceFormat := forms.PriceFormat{
		DecimalSeparator:   viper.GetString("PRICE_DECIMAL_SEPARATOR"),
		ThousandsSeparator: viper.GetString("PRICE_THOUSANDS_SEPARATOR"),
		CurrencySymbol:     viper.GetString("PRICE_CURRENCY_SYMBOL"),
	}

	// --- Services ---
	productService := services.NewProductService(storageService, priceFormat)
	uploadService := services.NewUploadService(storageService)

	// --- Handlers ---
	productHandler := handlers.NewProductHandler(productService, requestTimeout)
	uploadHandler := handlers.NewUploadHandler(uploadService, requestTimeout)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// --- Routes ---
	productHandler.RegisterRoutes(app)
	uploadHandler.RegisterRoutes(app)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// newProductStore picks the entity-store backend from configuration.
func newProductStore() (storage.EntityStore[models.Product, *models.Product], error) {
	backend := viper.GetString("ENTITY_BACKEND")
	switch backend {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(viper.GetString("SQLITE_PATH")), &gorm.Config{TranslateError: true})
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&models.Product{}); err != nil {
			return nil, err
		}
		return storage.NewGormEntityStore[models.Product, *models.Product](db), nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(viper.GetString("DATABASE_DSN")), &gorm.Config{TranslateError: true})
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&models.Product{}); err != nil {
			return nil, err
		}
		return storage.NewGormEntityStore[models.Product, *models.Product](db), nil
	default:
		log.Printf("Entity backend %q: using in-memory store", backend)
		return storage.NewMemoryEntityStore[models.Product, *models.Product](), nil
	}
}

// newFileStores picks the blob and file-share backends from configuration.
func newFileStores() (storage.BlobStore, storage.FileShareStore, error) {
	if viper.GetString("FILE_BACKEND") == "azure" {
		cfg := storage.AzureConfig{
			Account:      viper.GetString("AZURE_STORAGE_ACCOUNT"),
			AccountKey:   viper.GetString("AZURE_STORAGE_KEY"),
			BlobEndpoint: viper.GetString("AZURE_BLOB_ENDPOINT"),
			FileEndpoint: viper.GetString("AZURE_FILE_ENDPOINT"),
		}
		blobs, err := storage.NewAzureBlobStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		shares, err := storage.NewAzureFileShareStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		return blobs, shares, nil
	}
	log.Println("File backend: using in-memory blob and file-share stores")
	return storage.NewMemoryBlobStore(), storage.NewMemoryFileShareStore(), nil
}
