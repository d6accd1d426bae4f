package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"feedsync/api"
	"feedsync/media"
	"feedsync/storage"
	"feedsync/store"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := loadEnv(); err != nil {
		logger.Sugar().Warnf("no .env file loaded: %s", err.Error())
	}

	if err := initConfig(); err != nil {
		logger.Sugar().Panicf("failed to initialize yaml config: %s", err.Error())
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(os.Getenv("MONGO_URL")))
	if err != nil {
		logger.Sugar().Panicf("failed to connect to mongo: %s", err.Error())
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Sugar().Panicf("failed to ping mongo: %s", err.Error())
	}
	logger.Info("Successfully connected to MongoDB")

	var st storage.Storage = &storage.MongoStorage{
		Posts: client.Database(os.Getenv("MONGO_DBNAME")).Collection("posts"),
	}

	// A redis address is optional; with one set, document reads go through
	// the shared cache.
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			logger.Sugar().Panicf("failed to ping redis: %s", err.Error())
		}
		st = &storage.CachedStorage{Client: rdb, InternalStorage: st}
		logger.Info("Successfully connected to Redis")
	}

	uploader, err := media.NewMinioUploader(media.Config{
		Endpoint:     os.Getenv("S3_ENDPOINT"),
		AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		SecretKey:    os.Getenv("S3_SECRET_KEY"),
		UseSSL:       viper.GetBool("media.use_ssl"),
		Bucket:       viper.GetString("media.bucket"),
		PublicOrigin: viper.GetString("media.public_origin"),
	})
	if err != nil {
		logger.Sugar().Panicf("failed to create media uploader: %s", err.Error())
	}
	if err := uploader.EnsureBucket(ctx); err != nil {
		logger.Sugar().Panicf("failed to ensure media bucket: %s", err.Error())
	}

	postStore := store.New(st, uploader, logger)
	defer postStore.Close()

	srv := api.MakeServer(postStore, viper.GetString("app.port"))
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logger.Sugar().Panicf("failed to run http server: %s", err.Error())
		}
	}()

	logger.Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Server shutting down")
}

func loadEnv() error {
	return godotenv.Load()
}

func initConfig() error {
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")
	return viper.ReadInConfig()
}
