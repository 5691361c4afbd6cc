package statement

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the statement.
const SheetName = "Statement"

var colWidths = map[string]float64{"A": 12, "B": 16, "C": 14, "D": 30, "E": 14, "F": 14, "G": 16}

// WriteXLSX writes the statement as a single-sheet workbook: client details,
// the lines table, then totals.
func WriteXLSX(w io.Writer, s Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	sw := &sheetWriter{f: f}
	sw.row(bold, "Client", s.Client.Name)
	sw.row(0, "Client ID", s.Client.ID)
	sw.row(0, "Account", s.Client.AccountNumber)
	sw.row(0, "Agency", s.Client.AgencyNumber)
	sw.row(0, "As of", s.AsOf.Format("2006-01-02"))
	sw.next++

	header := make([]any, 0, 7)
	for _, h := range strings.Split(Header, ",") {
		header = append(header, h)
	}
	sw.row(bold, header...)
	for _, l := range s.Lines {
		sw.row(0,
			l.Date.Format("2006-01-02"),
			l.TransactionID,
			string(l.Type),
			l.Label,
			l.Amount.InexactFloat64(),
			l.Balance.InexactFloat64(),
			l.LoanID,
		)
	}
	sw.next++

	sw.row(bold, "Totals")
	sw.row(0, "Deposits", s.Deposits.InexactFloat64())
	sw.row(0, "Withdrawals", s.Withdrawals.InexactFloat64())
	sw.row(0, "Borrowed", s.Borrowed.InexactFloat64())
	sw.row(0, "Repaid", s.Repaid.InexactFloat64())
	sw.row(0, "Balance", s.Client.Balance.InexactFloat64())
	sw.row(0, "Debt", s.Client.Debt.InexactFloat64())
	sw.row(0, "Open loans", s.OpenLoans)
	if sw.err != nil {
		return sw.err
	}

	for col, width := range colWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("setting width of column %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// sheetWriter fills SheetName one row at a time and keeps the first error.
type sheetWriter struct {
	f    *excelize.File
	next int // zero-based; cell rows are next+1
	err  error
}

func (sw *sheetWriter) row(style int, values ...any) {
	sw.next++
	if sw.err != nil || len(values) == 0 {
		return
	}
	first, err := excelize.CoordinatesToCellName(1, sw.next)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetSheetRow(SheetName, first, &values); err != nil {
		sw.err = fmt.Errorf("writing row %d: %w", sw.next, err)
		return
	}
	if style == 0 {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(values), sw.next)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetCellStyle(SheetName, first, last, style); err != nil {
		sw.err = fmt.Errorf("styling row %d: %w", sw.next, err)
	}
}
