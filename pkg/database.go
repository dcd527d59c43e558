package eventbuilder

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	_ "modernc.org/sqlite"
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// OpenLocalDatabase opens a SQLite copy of the run tables, used offline and
// in tests.
func OpenLocalDatabase(path string) (*sqlx.DB, error) {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ArrayLayout (
		MinRun INTEGER NOT NULL,
		MaxRun INTEGER NOT NULL,
		Modules INTEGER NOT NULL,
		Channels INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS AsicMapping (
		MinRun INTEGER NOT NULL,
		MaxRun INTEGER NOT NULL,
		Asic INTEGER NOT NULL,
		Side INTEGER NOT NULL,
		AsicRow INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS CaenMapping (
		MinRun INTEGER NOT NULL,
		MaxRun INTEGER NOT NULL,
		Module INTEGER NOT NULL,
		Channel INTEGER NOT NULL,
		Family VARCHAR(16) NOT NULL,
		Sector INTEGER NOT NULL,
		Layer INTEGER NOT NULL,
		Axis INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS AsicCalibration (
		MinRun INTEGER NOT NULL,
		MaxRun INTEGER NOT NULL,
		Module INTEGER NOT NULL,
		Asic INTEGER NOT NULL,
		Channel INTEGER NOT NULL,
		CalOffset DOUBLE NOT NULL,
		CalGain DOUBLE NOT NULL,
		CalGainQuadr DOUBLE NOT NULL,
		Threshold INTEGER NOT NULL,
		Pulser INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS CaenCalibration (
		MinRun INTEGER NOT NULL,
		MaxRun INTEGER NOT NULL,
		Module INTEGER NOT NULL,
		Channel INTEGER NOT NULL,
		CalOffset DOUBLE NOT NULL,
		CalGain DOUBLE NOT NULL,
		CalGainQuadr DOUBLE NOT NULL,
		Threshold INTEGER NOT NULL,
		Pulser INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS BuildSummary (
		BuildID VARCHAR(36) NOT NULL,
		RunNumber INTEGER NOT NULL,
		Name VARCHAR(32) NOT NULL,
		Value BIGINT NOT NULL
	)`,
}

// CreateSchema creates the run tables when they do not exist.
func CreateSchema(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}
	return nil
}

type ArrayLayoutEntry struct {
	Modules  int `db:"Modules"`
	Channels int `db:"Channels"`
}

type AsicMappingEntry struct {
	Asic    int `db:"Asic"`
	Side    int `db:"Side"`
	AsicRow int `db:"AsicRow"`
}

type CaenMappingEntry struct {
	Module  int    `db:"Module"`
	Channel int    `db:"Channel"`
	Family  string `db:"Family"`
	Sector  int    `db:"Sector"`
	Layer   int    `db:"Layer"`
	Axis    int    `db:"Axis"`
}

type CalibrationEntry struct {
	Module    int     `db:"Module"`
	Asic      int     `db:"Asic"`
	Channel   int     `db:"Channel"`
	Offset    float64 `db:"CalOffset"`
	Gain      float64 `db:"CalGain"`
	GainQuadr float64 `db:"CalGainQuadr"`
	Threshold int     `db:"Threshold"`
	Pulser    bool    `db:"Pulser"`
}

func (e CalibrationEntry) coefficients() Coefficients {
	return Coefficients{
		Offset:    e.Offset,
		Gain:      e.Gain,
		GainQuadr: e.GainQuadr,
		Threshold: uint16(e.Threshold),
		Pulser:    e.Pulser,
	}
}

func runQuery(query string, runNumber int) string {
	query = fmt.Sprintf(query, runNumber, runNumber)
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}
	return query
}

// LoadWiring reads the wiring tables valid for runNumber.
func LoadWiring(db *sqlx.DB, runNumber int) (*Wiring, error) {
	if configuration.Verbosity > 0 {
		logger.Info("Wiring read from DB", "database")
	}

	var layout ArrayLayoutEntry
	query := runQuery("SELECT Modules, Channels FROM ArrayLayout WHERE MinRun <= %d and MaxRun >= %d", runNumber)
	if err := db.Get(&layout, query); err != nil {
		return nil, fmt.Errorf("error reading array layout for run %d: %w", runNumber, err)
	}

	query = runQuery("SELECT Asic, Side, AsicRow FROM AsicMapping WHERE MinRun <= %d and MaxRun >= %d ORDER BY Asic", runNumber)
	rows, err := db.Queryx(query)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var sides []Side
	var asicRows []uint8
	for rows.Next() {
		result := AsicMappingEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		if result.Asic != len(sides) {
			return nil, &ErrWiring{Table: "AsicMapping", Reason: fmt.Sprintf("ASIC %d listed after %d entries", result.Asic, len(sides))}
		}
		sides = append(sides, Side(result.Side))
		asicRows = append(asicRows, uint8(result.AsicRow))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASIC mapping: %w", err)
	}

	wiring, err := NewArrayWiring(layout.Modules, layout.Channels, sides, asicRows)
	if err != nil {
		return nil, err
	}

	query = runQuery("SELECT Module, Channel, Family, Sector, Layer, Axis FROM CaenMapping WHERE MinRun <= %d and MaxRun >= %d ORDER BY Module, Channel", runNumber)
	caenRows, err := db.Queryx(query)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer caenRows.Close()
	for caenRows.Next() {
		result := CaenMappingEntry{}
		if err := caenRows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		family, err := ParseDetectorFamily(result.Family)
		if err != nil {
			return nil, &ErrWiring{Table: "CaenMapping", Reason: err.Error()}
		}
		wiring.SetCaen(uint8(result.Module), uint8(result.Channel), CaenChannel{
			Family: family,
			Sector: uint8(result.Sector),
			Layer:  uint8(result.Layer),
			Axis:   uint8(result.Axis),
		})
	}
	if err := caenRows.Err(); err != nil {
		return nil, fmt.Errorf("error reading CAEN mapping: %w", err)
	}
	return wiring, wiring.Validate()
}

// LoadCalibration reads the calibration coefficients valid for runNumber.
func LoadCalibration(db *sqlx.DB, runNumber int) (*CoefficientTable, error) {
	if configuration.Verbosity > 0 {
		logger.Info("Calibration read from DB", "database")
	}
	table := NewCoefficientTable()

	query := runQuery("SELECT Module, Asic, Channel, CalOffset, CalGain, CalGainQuadr, Threshold, Pulser FROM AsicCalibration WHERE MinRun <= %d and MaxRun >= %d", runNumber)
	rows, err := db.Queryx(query)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		result := CalibrationEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		table.SetAsic(uint8(result.Module), uint8(result.Asic), uint8(result.Channel), result.coefficients())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASIC calibration: %w", err)
	}

	query = runQuery("SELECT Module, Channel, CalOffset, CalGain, CalGainQuadr, Threshold, Pulser FROM CaenCalibration WHERE MinRun <= %d and MaxRun >= %d", runNumber)
	caenRows, err := db.Queryx(query)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer caenRows.Close()
	for caenRows.Next() {
		result := CalibrationEntry{}
		if err := caenRows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		table.SetCaen(uint8(result.Module), uint8(result.Channel), result.coefficients())
	}
	if err := caenRows.Err(); err != nil {
		return nil, fmt.Errorf("error reading CAEN calibration: %w", err)
	}

	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Calibration entries: %d", table.Len()), "database")
	}
	return table, nil
}

type SummaryEntry struct {
	BuildID   string `db:"BuildID"`
	RunNumber int    `db:"RunNumber"`
	Name      string `db:"Name"`
	Value     int64  `db:"Value"`
}

// SaveSummary stores the counters of a build, one row per counter.
func SaveSummary(db *sqlx.DB, d Diagnostics) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	const insert = "INSERT INTO BuildSummary (BuildID, RunNumber, Name, Value) VALUES (:BuildID, :RunNumber, :Name, :Value)"
	for _, entry := range d.Entries() {
		row := SummaryEntry{
			BuildID:   d.BuildID.String(),
			RunNumber: d.RunNumber,
			Name:      entry.Name,
			Value:     int64(entry.Value),
		}
		if _, err := tx.NamedExec(insert, row); err != nil {
			tx.Rollback()
			return fmt.Errorf("error saving summary entry %s: %w", entry.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing summary: %w", err)
	}
	return nil
}

// LoadSummary returns the stored counters of a build.
func LoadSummary(db *sqlx.DB, buildID string) ([]SummaryEntry, error) {
	var entries []SummaryEntry
	err := db.Select(&entries, db.Rebind("SELECT BuildID, RunNumber, Name, Value FROM BuildSummary WHERE BuildID = ?"), buildID)
	if err != nil {
		return nil, fmt.Errorf("error reading summary: %w", err)
	}
	return entries, nil
}
