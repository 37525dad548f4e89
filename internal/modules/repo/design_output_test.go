package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/roomforge/api/internal/modules/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestDesignOutputRepo_ListByDesignID_Ordered(t *testing.T) {
	db := setupTestDB(t)
	designs := NewDesignRepo(db)
	outputs := NewDesignOutputRepo(db)
	ctx := context.Background()

	d := seedDesign(t, designs, "user-1", nil, 0)
	other := seedDesign(t, designs, "user-1", nil, time.Minute)

	second := &model.DesignOutput{DesignID: d.ID, OutputImageURL: "designs/2.png", VariationName: "Variation 2", CreatedAt: baseTime.Add(2 * time.Second)}
	first := &model.DesignOutput{DesignID: d.ID, OutputImageURL: "designs/1.png", VariationName: "Variation 1", CreatedAt: baseTime.Add(time.Second),
		GenerationParameters: datatypes.JSONMap{"model": "gpt-image-1", "index": 0}}
	require.NoError(t, outputs.CreateBatch(ctx, []*model.DesignOutput{second, first}))
	require.NoError(t, outputs.Create(ctx, &model.DesignOutput{DesignID: other.ID, OutputImageURL: "designs/x.png"}))

	got, err := outputs.ListByDesignID(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, "gpt-image-1", got[0].GenerationParameters["model"])
}

func TestDesignOutputRepo_ListByDesignID_SameBatchByVariation(t *testing.T) {
	db := setupTestDB(t)
	outputs := NewDesignOutputRepo(db)
	ctx := context.Background()
	d := seedDesign(t, NewDesignRepo(db), "user-1", nil, 0)

	batch := make([]*model.DesignOutput, 0, 12)
	for _, idx := range []int{10, 3, 1, 12, 2, 11, 5, 4, 9, 6, 8, 7} {
		batch = append(batch, &model.DesignOutput{
			DesignID:       d.ID,
			OutputImageURL: fmt.Sprintf("designs/%d.png", idx),
			VariationName:  fmt.Sprintf("Variation %d", idx),
			VariationIndex: idx,
		})
	}
	require.NoError(t, outputs.CreateBatch(ctx, batch))

	got, err := outputs.ListByDesignID(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, got, 12)
	for i, o := range got {
		assert.Equal(t, i+1, o.VariationIndex)
		assert.Equal(t, fmt.Sprintf("Variation %d", i+1), o.VariationName)
	}
	assert.Equal(t, batch[0].CreatedAt, batch[11].CreatedAt)
}

func TestDesignOutputRepo_CreateBatch_Empty(t *testing.T) {
	outputs := NewDesignOutputRepo(setupTestDB(t))
	assert.NoError(t, outputs.CreateBatch(context.Background(), nil))
}
