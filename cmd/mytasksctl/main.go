// Command mytasksctl runs maintenance tasks against a MyTasks database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	mongoURI string
	database string
	verbose  bool
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var g globalFlags
	root := &cobra.Command{
		Use:           "mytasksctl",
		Short:         "Maintenance commands for MyTasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.mongoURI, "mongo-uri", envOr("MYTASKS_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&g.database, "db", envOr("MYTASKS_MONGO_DATABASE", "mytasks"), "MongoDB database name")
	pf.BoolVar(&g.verbose, "verbose", false, "Log progress to stderr")

	root.AddCommand(
		ensureIndexesCmd(&g),
		sweepSprintsCmd(&g),
		boardCmd(&g),
		tokenCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (g *globalFlags) logger() *zap.Logger {
	if !g.verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// connect opens and pings the database named by g. The caller disconnects.
func (g *globalFlags) connect(ctx context.Context) (*mongo.Client, *mongo.Database, error) {
	if err := wafflemongo.ValidateURI(g.mongoURI); err != nil {
		return nil, nil, fmt.Errorf("invalid --mongo-uri: %w", err)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(g.mongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return client, client.Database(g.database), nil
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = client.Disconnect(ctx)
}
