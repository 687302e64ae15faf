package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsinghua-fib-lab/transit-routing/feed"
	"github.com/tsinghua-fib-lab/transit-routing/planner"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Path GTFS数据来源，本地目录/.zip文件或Mongo数据库
type Path struct {
	File string
	DB   string
}

func NewPath(filePathOrDB string) (*Path, error) {
	// 检查filePathOrDB是否作为文件存在
	if _, err := os.Stat(filePathOrDB); err == nil {
		return &Path{
			File: filePathOrDB,
		}, nil
	}
	db := strings.TrimSpace(filePathOrDB)
	if db == "" {
		return nil, errors.New("empty feed path")
	}
	if strings.ContainsAny(db, `/\. "$`) {
		return nil, fmt.Errorf("feed path is neither an existing file nor a valid db name: %s", db)
	}
	return &Path{
		DB: db,
	}, nil
}

func (p *Path) String() string {
	if p.File != "" {
		// return absolute path
		path, err := filepath.Abs(p.File)
		if err != nil {
			return p.File
		}
		return path
	}
	return "mongo:" + p.DB
}

// Load 读取时刻表，Mongo来源时按需建立连接并在读取后断开
func (p *Path) Load(ctx context.Context, mongoURI string) (planner.Schedule, error) {
	if p.File != "" {
		return feed.Load(p.File)
	}
	if mongoURI == "" {
		return planner.Schedule{}, fmt.Errorf("mongo uri is required to load %s", p)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return planner.Schedule{}, fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warnf("disconnect mongo: %v", err)
		}
	}()
	return feed.LoadMongo(ctx, client.Database(p.DB))
}
