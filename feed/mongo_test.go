package feed_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/transit-routing/feed"
	"github.com/tsinghua-fib-lab/transit-routing/planner"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 需要设置MONGO_URI
func TestLoadMongo(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	db := client.Database(fmt.Sprintf("transit_routing_test_%d", time.Now().UnixNano()))
	defer db.Drop(ctx)

	// 与mongoimport推断出的类型一致
	collections := map[string][]interface{}{
		"stops": {
			bson.D{{Key: "stop_id", Value: "ST1"}, {Key: "stop_name", Value: "Stop 1"}, {Key: "stop_lat", Value: 47.500366}, {Key: "stop_lon", Value: 19.1357}},
			bson.D{{Key: "stop_id", Value: "ST2"}, {Key: "stop_name", Value: "Stop 2"}, {Key: "stop_lat", Value: 47.501}, {Key: "stop_lon", Value: 19.159}},
		},
		"routes": {
			bson.D{{Key: "route_id", Value: "RT1"}, {Key: "route_short_name", Value: "Route 1"}, {Key: "route_type", Value: int32(3)}},
		},
		"trips": {
			bson.D{{Key: "route_id", Value: "RT1"}, {Key: "trip_id", Value: "TR1"}, {Key: "service_id", Value: "SV1"}},
		},
		"stop_times": {
			bson.D{{Key: "trip_id", Value: "TR1"}, {Key: "stop_id", Value: "ST1"}, {Key: "arrival_time", Value: "08:00:00"}, {Key: "departure_time", Value: "08:00:00"}, {Key: "stop_sequence", Value: int32(1)}},
			bson.D{{Key: "trip_id", Value: "TR1"}, {Key: "stop_id", Value: "ST2"}, {Key: "arrival_time", Value: "08:01:00"}, {Key: "departure_time", Value: "08:10:00"}, {Key: "stop_sequence", Value: int32(2)}},
		},
		"calendar_dates": {
			bson.D{{Key: "service_id", Value: "SV1"}, {Key: "date", Value: int32(20241007)}, {Key: "exception_type", Value: int32(1)}},
		},
	}
	for name, docs := range collections {
		_, err := db.Collection(name).InsertMany(ctx, docs)
		require.NoError(t, err)
	}

	s, err := feed.LoadMongo(ctx, db)
	require.NoError(t, err)
	assert.Len(t, s.Stops, 2)
	assert.Empty(t, s.Pathways)
	require.Len(t, s.Trips, 1)
	assert.Equal(t, []planner.Date{date("20241007")}, s.Trips[0].ServiceDates)
	assert.Equal(t, planner.RouteTypeBus, s.Routes[0].Type)
	require.Len(t, s.Visits, 2)
	assert.Equal(t, 2, s.Visits[1].Sequence)
}
