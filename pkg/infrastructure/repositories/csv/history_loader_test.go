package csv

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/domain/entities"
)

const historyHeader = "date,location_id,location_type,product_id,sales_quantity,current_stock,lead_time_days,target_stock,price\n"

func TestReadHistory_ParsesRows(t *testing.T) {
	input := historyHeader +
		"2024-01-01,S1,Spoke,P1,4,40,3,100,19.99\n" +
		"2024-01-01,H1,Hub,P1,0,500,5,,\n"

	records, err := NewLoader().ReadHistory(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, records, 2)

	store := records[0]
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), store.Date)
	assert.Equal(t, entities.LocationID("S1"), store.Location)
	assert.Equal(t, entities.Store, store.LocationKind)
	assert.Equal(t, entities.Quantity(4), store.SalesQuantity)
	assert.Equal(t, entities.Quantity(40), store.CurrentStock)
	assert.Equal(t, 3, store.LeadTimeDays)
	assert.Equal(t, entities.Quantity(100), store.TargetStock)
	assert.True(t, decimal.RequireFromString("19.99").Equal(store.Price))

	hub := records[1]
	assert.Equal(t, entities.Hub, hub.LocationKind)
	assert.Equal(t, entities.Quantity(0), hub.TargetStock)
	assert.True(t, hub.Price.IsZero())
}

func TestReadHistory_ColumnsMatchedByName(t *testing.T) {
	input := "product_id,location_id,date,location_type,lead_time_days,current_stock,sales_quantity\n" +
		"P9,W1,2024-02-03,Warehouse,7,12.0,2\n"

	records, err := NewLoader().ReadHistory(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entities.ProductID("P9"), records[0].Product)
	assert.Equal(t, entities.Warehouse, records[0].LocationKind)
	assert.Equal(t, entities.Quantity(12), records[0].CurrentStock)
}

func TestReadHistory_ForwardFillsMissingSales(t *testing.T) {
	// Rows deliberately out of order
	input := historyHeader +
		"2024-01-03,S1,Store,P1,,10,3,100,1\n" +
		"2024-01-01,S1,Store,P1,,10,3,100,1\n" +
		"2024-01-02,S1,Store,P1,6,10,3,100,1\n" +
		"2024-01-02,S2,Store,P1,,10,3,100,1\n"

	records, err := NewLoader().ReadHistory(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(6), records[0].SalesQuantity)
	assert.True(t, records[0].SalesMissing)
	assert.Equal(t, entities.Quantity(0), records[1].SalesQuantity)
	assert.Equal(t, entities.Quantity(6), records[2].SalesQuantity)
	assert.False(t, records[2].SalesMissing)
	assert.Equal(t, entities.Quantity(0), records[3].SalesQuantity)
}

func TestReadHistory_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "header only",
			input:   historyHeader,
			wantErr: "header and at least one data row",
		},
		{
			name:    "missing column",
			input:   "date,location_id,product_id\n2024-01-01,S1,P1\n",
			wantErr: "header missing columns [location_type sales_quantity current_stock lead_time_days]",
		},
		{
			name:    "bad date",
			input:   historyHeader + "01/02/2024,S1,Store,P1,1,1,1,1,1\n",
			wantErr: "row 2: invalid date format",
		},
		{
			name:    "negative stock",
			input:   historyHeader + "2024-01-01,S1,Store,P1,1,1,1,1,1\n2024-01-02,S1,Store,P1,1,-4,1,1,1\n",
			wantErr: "row 3: current_stock cannot be negative",
		},
		{
			name:    "fractional sales",
			input:   historyHeader + "2024-01-01,S1,Store,P1,1.5,1,1,1,1\n",
			wantErr: "invalid sales_quantity: 1.5",
		},
		{
			name:    "unknown location type",
			input:   historyHeader + "2024-01-01,S1,Depot,P1,1,1,1,1,1\n",
			wantErr: "invalid location_type: Depot",
		},
		{
			name:    "bad price",
			input:   historyHeader + "2024-01-01,S1,Store,P1,1,1,1,1,abc\n",
			wantErr: "invalid price: abc",
		},
		{
			name:    "ragged row",
			input:   historyHeader + "2024-01-01,S1,Store\n",
			wantErr: "failed to read history CSV",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().ReadHistory(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedHistory)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFileSource_LoadHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(historyHeader+"2024-01-01,S1,Store,P1,4,40,3,100,2\n"), 0o600))

	records, err := NewFileSource(path).LoadHistory(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).LoadHistory(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFileSource(path).LoadHistory(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteTable(t *testing.T) {
	table := dto.Table{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"1", "x,y"}, {"2", ""}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, table))
	assert.Equal(t, "a,b\n1,\"x,y\"\n2,\n", buf.String())

	table.Rows = append(table.Rows, []string{"3"})
	assert.Error(t, WriteTable(&buf, table))
}

func TestSaveTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, SaveTable(path, dto.Table{Header: []string{"h"}, Rows: [][]string{{"v"}}}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "h\nv\n", string(content))
}
