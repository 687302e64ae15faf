package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tsinghua-fib-lab/transit-routing/planner"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LoadMongo 从Mongo数据库读取GTFS数据
// 每个GTFS文件对应一个去掉.txt后缀的同名集合，每个文档为一行，
// 可由 mongoimport --type csv --headerline 直接导入
func LoadMongo(ctx context.Context, db *mongo.Database) (planner.Schedule, error) {
	log.Infof("loading feed from mongo database %s", db.Name())
	return build(func(name string) (*table, error) {
		return readCollection(ctx, db, name)
	})
}

func readCollection(ctx context.Context, db *mongo.Database, name string) (*table, error) {
	collName := strings.TrimSuffix(name, ".txt")
	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collName}})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	cur, err := db.Collection(collName).Find(ctx, bson.D{},
		options.Find().SetProjection(bson.D{{Key: "_id", Value: 0}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", collName, err)
	}
	defer cur.Close(ctx)

	t := &table{name: name}
	columns := make(map[string]int)
	for cur.Next(ctx) {
		var doc bson.D
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: %w", collName, err)
		}
		row := make([]string, len(t.header))
		for _, e := range doc {
			i, ok := columns[e.Key]
			if !ok {
				i = len(t.header)
				columns[e.Key] = i
				t.header = append(t.header, e.Key)
			}
			for len(row) <= i {
				row = append(row, "")
			}
			row[i] = formatValue(e.Value)
		}
		t.rows = append(t.rows, row)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", collName, err)
	}
	log.Debugf("collection %s: %d documents, %d columns", collName, len(t.rows), len(t.header))
	return t, nil
}

// formatValue 将mongoimport推断出的类型还原为GTFS文本
func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v)
	}
}
