// csv-gen produces stock item CSV fixtures for exercising the importer.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

func main() {
	rows := flag.Int("rows", 100000, "number of data rows to generate")
	out := flag.String("out", "items.csv", "output file path")
	flag.Parse()

	if err := generate(*out, *rows); err != nil {
		fmt.Fprintf(os.Stderr, "csv-gen: %v\n", err)
		os.Exit(1)
	}
}

func generate(path string, rows int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"externalId", "name", "quantity", "expiryDate"}); err != nil {
		return err
	}

	base := time.Now()
	for i := 0; i < rows; i++ {
		record := []string{
			uuid.NewString(),
			fmt.Sprintf("item-%d", i),
			strconv.Itoa(rand.Intn(10000)),
			base.AddDate(0, 0, rand.Intn(730)).Format("2006-01-02"),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
