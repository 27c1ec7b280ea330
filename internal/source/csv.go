package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/rfm-insights/internal/domain"
	"github.com/dvloznov/rfm-insights/internal/rfm"
)

// CSVSource reads a header-mapped transaction ledger from a local file. Column
// names follow the credit-card export; a few common aliases are accepted so
// the same loader handles both raw and cleaned datasets.
type CSVSource struct {
	Path          string
	SkipMalformed bool
}

func (s *CSVSource) Read(ctx context.Context) ([]domain.Transaction, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("source: open %q: %w", s.Path, err)
	}
	defer f.Close()

	return ParseCSV(f, s.SkipMalformed)
}

// columnAliases maps logical fields to the header names seen in the wild.
var columnAliases = map[string][]string{
	"customer_id": {"customer_id", "cc_num", "card_number"},
	"timestamp":   {"timestamp", "trans_date_trans_time", "transaction_date"},
	"amount":      {"amount", "amt"},
	"merchant":    {"merchant"},
	"category":    {"category"},
	"city":        {"city"},
	"state":       {"state"},
	"lat":         {"lat", "latitude"},
	"long":        {"long", "longitude"},
	"is_fraud":    {"is_fraud", "fraud"},
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseCSV decodes transactions from r. Malformed rows surface as
// rfm.MalformedRecordError unless skipMalformed is set, in which case they
// are dropped and parsing continues.
func ParseCSV(r io.Reader, skipMalformed bool) ([]domain.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []domain.Transaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("source: read csv header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var txs []domain.Transaction
	rowIndex := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				if skipMalformed {
					rowIndex++
					continue
				}
				return nil, &rfm.MalformedRecordError{Index: rowIndex, Field: "field_count"}
			}
			return nil, fmt.Errorf("source: read csv row %d: %w", rowIndex, err)
		}

		tx, parseErr := parseRow(row, cols, rowIndex)
		if parseErr != nil {
			if skipMalformed {
				rowIndex++
				continue
			}
			return nil, parseErr
		}
		txs = append(txs, tx)
		rowIndex++
	}
	return txs, nil
}

func mapColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := make(map[string]int)
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			if i, ok := index[alias]; ok {
				cols[field] = i
				break
			}
		}
	}

	for _, required := range []string{"customer_id", "timestamp", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("source: csv header missing required column %s (accepted: %v)",
				required, columnAliases[required])
		}
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int, rowIndex int) (domain.Transaction, error) {
	get := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	customerID := get("customer_id")
	if customerID == "" {
		return domain.Transaction{}, &rfm.MalformedRecordError{Index: rowIndex, Field: "customer_id"}
	}

	tsRaw := get("timestamp")
	if tsRaw == "" {
		return domain.Transaction{}, &rfm.MalformedRecordError{Index: rowIndex, Field: "timestamp"}
	}
	var ts time.Time
	var tsErr error
	for _, layout := range timestampLayouts {
		ts, tsErr = time.Parse(layout, tsRaw)
		if tsErr == nil {
			break
		}
	}
	if tsErr != nil {
		return domain.Transaction{}, &rfm.MalformedRecordError{Index: rowIndex, Field: "timestamp"}
	}

	amountRaw := get("amount")
	if amountRaw == "" {
		return domain.Transaction{}, &rfm.MalformedRecordError{Index: rowIndex, Field: "amount"}
	}
	amount, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil {
		return domain.Transaction{}, &rfm.MalformedRecordError{Index: rowIndex, Field: "amount"}
	}

	tx := domain.Transaction{
		CustomerID: customerID,
		Timestamp:  ts.UTC(),
		Amount:     amount,
		Merchant:   get("merchant"),
		Category:   get("category"),
		City:       get("city"),
		State:      get("state"),
	}

	if v := get("lat"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			tx.Latitude = &lat
		}
	}
	if v := get("long"); v != "" {
		if lng, err := strconv.ParseFloat(v, 64); err == nil {
			tx.Longitude = &lng
		}
	}
	if v := get("is_fraud"); v == "1" || strings.EqualFold(v, "true") {
		tx.IsFraud = true
	}

	return tx, nil
}
