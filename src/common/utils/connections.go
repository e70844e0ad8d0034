package utils

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/jack-barr3tt/journey-tracker/src/common/config"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

func NewRabbitConnection(cfg config.MQConfig) (*amqp.Connection, *amqp.Channel, error) {
	amqpConfig := amqp.Config{
		Heartbeat: 60 * time.Second,
		Locale:    "en_US",
	}

	connection, err := amqp.DialConfig(fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.User, cfg.Password, cfg.Host, cfg.Port), amqpConfig)
	if err != nil {
		return nil, nil, err
	}
	channel, err := connection.Channel()
	if err != nil {
		connection.Close()
		return nil, nil, err
	}

	return connection, channel, nil
}

func NewStompConnection(cfg config.StompConfig) (*stomp.Conn, error) {
	opts := []func(*stomp.Conn) error{}
	if cfg.Username != "" {
		opts = append(opts, stomp.ConnOpt.Login(cfg.Username, cfg.Password))
	}

	conn, err := stomp.Dial("tcp", cfg.Addr, opts...)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   0,
	})
}

func NewPostgresConnection(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	dbConnectionString := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DB,
	)

	connection, err := pgxpool.New(ctx, dbConnectionString)
	if err != nil {
		return nil, err
	}

	return connection, nil
}

func NewSQLiteConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
