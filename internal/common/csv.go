// Package common provides shared CSV input and output helpers.
package common

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Delimiter is the CSV output delimiter, configurable via import.csv_delimiter.
var Delimiter rune = ','

// SetDelimiter sets the delimiter for CSV output.
func SetDelimiter(delim rune) {
	Delimiter = delim
	gocsv.TagSeparator = fmt.Sprintf("%c", delim)
}

// SetLogger sets a custom logger for this package.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// transactionRow is the CSV projection of a normalized transaction.
type transactionRow struct {
	Date               string `csv:"Date"`
	Kind               string `csv:"Type"`
	SecurityName       string `csv:"Security"`
	ISIN               string `csv:"ISIN"`
	WKN                string `csv:"WKN"`
	Ticker             string `csv:"Ticker"`
	Shares             string `csv:"Shares"`
	SharesFromHoldings bool   `csv:"SharesFromHoldings"`
	Amount             string `csv:"Amount"`
	Currency           string `csv:"Currency"`
	GrossAmount        string `csv:"GrossAmount"`
	GrossCurrency      string `csv:"GrossCurrency"`
	Fees               string `csv:"Fees"`
	Taxes              string `csv:"Taxes"`
	Note               string `csv:"Note"`
	DateWarning        string `csv:"DateWarning"`
}

func toRow(tx models.NormalizedTransaction) transactionRow {
	row := transactionRow{
		Date:               tx.ResolvedDate,
		Kind:               string(tx.Kind),
		SecurityName:       tx.SecurityName,
		ISIN:               tx.ISIN,
		WKN:                tx.WKN,
		Ticker:             tx.Ticker,
		SharesFromHoldings: tx.SharesFromHoldings,
		Amount:             tx.Amount.StringFixed(2),
		Currency:           tx.Currency,
		Note:               tx.Note,
		DateWarning:        tx.DateWarning,
	}
	if tx.HasShares() {
		row.Shares = tx.Shares.String()
	}
	if tx.HasForeignCurrency() {
		row.GrossAmount = tx.GrossAmount.StringFixed(2)
		row.GrossCurrency = tx.GrossCurrency
	}
	if !tx.Fees.IsZero() {
		row.Fees = tx.Fees.StringFixed(2)
	}
	if !tx.Taxes.IsZero() {
		row.Taxes = tx.Taxes.StringFixed(2)
	}
	return row
}

// WriteTransactionsToCSV writes normalized transactions to a CSV file, one
// row per record, in a stable column order.
func WriteTransactionsToCSV(transactions []models.NormalizedTransaction, csvFile string) error {
	if transactions == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}

	log.WithFields(logrus.Fields{
		"file":  csvFile,
		"count": len(transactions),
	}).Info("Writing transactions to CSV file")

	dir := filepath.Dir(csvFile)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	rows := make([]transactionRow, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, toRow(tx))
	}

	csvWriter := csv.NewWriter(file)
	csvWriter.Comma = Delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}

	log.WithField("count", len(rows)).Info("Successfully wrote transactions to CSV file")
	return nil
}
