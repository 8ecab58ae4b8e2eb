package seeder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// maxLineSize is the buffer size for bufio.Scanner (1 MB).
const maxLineSize = 1 << 20

type noteLine struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

type salesLine struct {
	ProductName string    `json:"productName"`
	Price       float64   `json:"price"`
	SoldAt      time.Time `json:"soldAt"`
}

// Stats counts lines read from a dataset file.
type Stats struct {
	TotalLines     int
	BlankLines     int
	MalformedLines int
}

// readNotes streams a JSONL file of {"title","content"} objects.
func readNotes(path string) ([]domain.NoteInput, Stats, error) {
	return readJSONL(path, func(l noteLine) domain.NoteInput {
		return domain.NoteInput{Title: l.Title, Content: l.Content}
	})
}

// readSales streams a JSONL file of {"productName","price","soldAt"} objects.
func readSales(path string) ([]domain.SalesRecordInput, Stats, error) {
	return readJSONL(path, func(l salesLine) domain.SalesRecordInput {
		return domain.SalesRecordInput{ProductName: l.ProductName, Price: l.Price, SoldAt: l.SoldAt.UTC()}
	})
}

func readJSONL[L, T any](path string, convert func(L) T) ([]T, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var (
		out   []T
		stats Stats
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64<<10), maxLineSize)

	for scanner.Scan() {
		stats.TotalLines++
		line := scanner.Bytes()
		if len(line) == 0 {
			stats.BlankLines++
			continue
		}

		var l L
		if err := json.Unmarshal(line, &l); err != nil {
			stats.MalformedLines++
			continue
		}
		out = append(out, convert(l))
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scan %s: %w", path, err)
	}

	return out, stats, nil
}
