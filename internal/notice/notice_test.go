package notice

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectorRecordsInOrder(t *testing.T) {
	ctx := WithCollector(context.Background())

	Error(ctx, "Could not load locations.")
	Warning(ctx, "Visit finished, but AI rating could not be saved.")
	Success(ctx, "Location added successfully.")

	assert.Equal(t, []Notice{
		{Level: LevelError, Message: "Could not load locations."},
		{Level: LevelWarning, Message: "Visit finished, but AI rating could not be saved."},
		{Level: LevelSuccess, Message: "Location added successfully."},
	}, List(ctx))
}

func TestWithoutCollectorIsNoop(t *testing.T) {
	ctx := context.Background()
	Error(ctx, "dropped")
	assert.Nil(t, List(ctx))
}

func TestCollectorIsSafeForConcurrentWriters(t *testing.T) {
	ctx := WithCollector(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Error(ctx, "x")
		}()
	}
	wg.Wait()
	assert.Len(t, List(ctx), 20)
}
