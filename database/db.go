package database

import (
	"context"
	"log"
	"time"

	"reservo/config"
	"reservo/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MongoClient is the global MongoDB client instance.
var MongoClient *mongo.Client

// LedgerDB is the relational store behind provider wallets.
var LedgerDB *gorm.DB

// InitDB initializes the MongoDB connection.
func InitDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.AppConfig.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("failed to ping MongoDB: %v", err)
	}
	MongoClient = client
	log.Println("Connected to MongoDB successfully!")
}

// Mongo returns the application database handle.
func Mongo() *mongo.Database {
	return MongoClient.Database(config.AppConfig.DatabaseName)
}

// InitLedgerDB opens the postgres ledger and migrates the wallet tables.
func InitLedgerDB() {
	db, err := gorm.Open(postgres.Open(config.AppConfig.LedgerDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to ledger database: %v", err)
	}
	if err := db.AutoMigrate(&models.Wallet{}, &models.Transaction{}); err != nil {
		log.Fatalf("failed to migrate ledger tables: %v", err)
	}
	LedgerDB = db
	log.Println("Connected to ledger database successfully!")
}

// Close disconnects every store that was opened.
func Close(ctx context.Context) {
	if MongoClient != nil {
		if err := MongoClient.Disconnect(ctx); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}
	if LedgerDB != nil {
		if sqlDB, err := LedgerDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// Ping checks both stores; used by the health endpoint.
func Ping(ctx context.Context) error {
	if MongoClient != nil {
		if err := MongoClient.Ping(ctx, nil); err != nil {
			return err
		}
	}
	if LedgerDB != nil {
		sqlDB, err := LedgerDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return nil
}
