package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"commutewatch/pkg/heatmap"
	"commutewatch/pkg/render"
)

func main() {
	// Command line flags
	var (
		csvFile   = flag.String("csv", "", "Read samples from a CSV export instead of the database")
		dbHost    = flag.String("db-host", "localhost", "Database host")
		dbPort    = flag.Int("db-port", 5432, "Database port")
		dbUser    = flag.String("db-user", "postgres", "Database user")
		dbPass    = flag.String("db-pass", "", "Database password")
		dbName    = flag.String("db-name", "commute", "Database name")
		dbSSLMode = flag.String("db-sslmode", "disable", "Database sslmode")
		outputDir = flag.String("output-dir", ".", "Directory for rendered PNG files")
		exportCSV = flag.String("export-csv", "", "Optional CSV output file path for the fetched samples")
	)
	flag.Parse()

	fmt.Printf("Commute Heatmap Charts\n")
	fmt.Printf("======================\n\n")

	var samples []heatmap.RawSample
	if *csvFile != "" {
		fmt.Printf("Reading samples from CSV: %s\n", *csvFile)
		samples = loadSamplesFromCSV(*csvFile)
	} else {
		connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			*dbHost, *dbPort, *dbUser, *dbPass, *dbName, *dbSSLMode)

		db, err := sql.Open("postgres", connStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			fmt.Fprintf(os.Stderr, "Error pinging database: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Reading samples from database: %s@%s:%d/%s\n", *dbUser, *dbHost, *dbPort, *dbName)
		samples = fetchSamplesFromDB(db)
	}

	normalized := heatmap.Normalize(samples)
	fmt.Printf("Loaded %d samples (%d usable)\n\n", len(samples), len(normalized))

	if len(normalized) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no gathered samples to chart\n")
		os.Exit(1)
	}

	if *exportCSV != "" {
		if err := writeSamplesCSV(*exportCSV, samples); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		} else {
			fmt.Printf("Samples exported to: %s\n\n", *exportCSV)
		}
	}

	heatmaps := heatmap.Build(normalized)
	for _, direction := range heatmap.Directions(heatmaps) {
		hm := heatmaps[direction]

		fmt.Printf("%s (%s, %s)\n", direction, hm.Period, hm.DateRange)
		printDirectionStats(hm)

		img := render.Heatmap(hm, direction)
		outPath := filepath.Join(*outputDir, render.OutputFilename(direction))
		if err := writePNG(outPath, img); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outPath, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%dx%d)\n\n", outPath, img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func fetchSamplesFromDB(db *sql.DB) []heatmap.RawSample {
	query := `
		SELECT date_local, departure_time_rfc3339, direction, duration
		FROM commute_slots
		WHERE duration IS NOT NULL AND duration <> ''
		ORDER BY departure_time_rfc3339
	`

	rows, err := db.Query(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying data: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	var samples []heatmap.RawSample
	for rows.Next() {
		var s heatmap.RawSample
		var duration sql.NullString
		if err := rows.Scan(&s.DateLocal, &s.DepartureRFC3339, &s.Direction, &duration); err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning row: %v\n", err)
			continue
		}
		if duration.Valid {
			s.Duration = &duration.String
		}
		samples = append(samples, s)
	}

	return samples
}

// loadSamplesFromCSV reads a sample export produced by -export-csv (or any
// CSV carrying the same column names, extra columns are ignored).
func loadSamplesFromCSV(path string) []heatmap.RawSample {
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening CSV: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading CSV: %v\n", err)
		os.Exit(1)
	}
	if len(records) < 2 {
		fmt.Fprintf(os.Stderr, "Error: CSV has no data rows\n")
		os.Exit(1)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, required := range []string{"date_local", "departure_time_rfc3339", "direction", "duration"} {
		if _, ok := cols[required]; !ok {
			fmt.Fprintf(os.Stderr, "Error: CSV is missing column %q\n", required)
			os.Exit(1)
		}
	}

	var samples []heatmap.RawSample
	for _, record := range records[1:] {
		s := heatmap.RawSample{
			DateLocal:        record[cols["date_local"]],
			DepartureRFC3339: record[cols["departure_time_rfc3339"]],
			Direction:        record[cols["direction"]],
		}
		if d := record[cols["duration"]]; d != "" {
			s.Duration = &d
		}
		samples = append(samples, s)
	}

	return samples
}

func writeSamplesCSV(path string, samples []heatmap.RawSample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"date_local", "departure_time_rfc3339", "direction", "duration"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, s := range samples {
		duration := ""
		if s.Duration != nil {
			duration = *s.Duration
		}
		record := []string{s.DateLocal, s.DepartureRFC3339, s.Direction, duration}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

func printDirectionStats(hm *heatmap.DirectionHeatmap) {
	fmt.Printf("%-10s | %6s | %10s | %10s | %10s\n", "Weekday", "Cells", "Mean(min)", "Min", "Max")
	fmt.Printf("-----------+--------+------------+------------+------------\n")

	var all []float64
	for _, weekday := range hm.WeekdayOrder {
		var values []float64
		for _, t := range hm.TimeAxis {
			if v := hm.CellGrid[weekday][t]; v != nil {
				values = append(values, *v)
			}
		}
		if len(values) == 0 {
			fmt.Printf("%-10s | %6d | %10s | %10s | %10s\n", weekday, 0, "-", "-", "-")
			continue
		}
		fmt.Printf("%-10s | %6d | %10.1f | %10.1f | %10.1f\n",
			weekday, len(values), stat.Mean(values, nil), floats.Min(values), floats.Max(values))
		all = append(all, values...)
	}

	if len(all) > 1 {
		fmt.Printf("Overall: %d cells, mean %.1f min, stddev %.1f min\n",
			len(all), stat.Mean(all, nil), stat.StdDev(all, nil))
	}
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}
