package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/libreria-pagine/turni/backend/internal/domain"
)

var Header = []string{"date", "day_of_week", "morning_shift", "afternoon_shift", "notes"}

func WriteCSV(w io.Writer, shifts []*domain.Shift) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, s := range shifts {
		if err := writer.Write([]string{s.Date, s.DayOfWeek, s.MorningShift, s.AfternoonShift, s.Notes}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadCSV 读取导出的格式，month_year 由调用方根据月份填写
func ReadCSV(r io.Reader, month domain.Month) ([]*domain.Shift, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)
	reader.TrimLeadingSpace = true

	// 读取表头
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file CSV vuoto")
		}
		return nil, err
	}
	// Excel 导出的文件可能带有 BOM
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("intestazione non valida: attesa %q", strings.Join(Header, ","))
	}

	shifts := make([]*domain.Shift, 0, month.DaysIn())
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		shifts = append(shifts, &domain.Shift{
			Date:           strings.TrimSpace(row[0]),
			MonthYear:      month.String(),
			DayOfWeek:      strings.TrimSpace(row[1]),
			MorningShift:   strings.TrimSpace(row[2]),
			AfternoonShift: strings.TrimSpace(row[3]),
			Notes:          strings.TrimSpace(row[4]),
		})
	}

	return shifts, nil
}
