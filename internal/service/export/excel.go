package export

import (
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
)

// Workbook builds the Profile, Medicines and Vitals sheets.
func Workbook(r *model.PatientRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Profile"); err != nil {
		return nil, err
	}
	var profile model.Profile
	if r.Profile != nil {
		profile = *r.Profile
	}
	rows := [][]interface{}{
		{"Field", "Value"},
		{"Username", r.Patient.Username},
		{"Full name", profile.FullName},
		{"Address", profile.Address},
		{"Allergies", profile.Allergies},
		{"Health history", profile.HealthHistory},
	}
	if err := writeRows(f, "Profile", rows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Medicines"); err != nil {
		return nil, err
	}
	rows = [][]interface{}{{"Name", "Dosage"}}
	for _, m := range r.Medicines {
		rows = append(rows, []interface{}{m.Name, m.Dosage})
	}
	if err := writeRows(f, "Medicines", rows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Vitals"); err != nil {
		return nil, err
	}
	rows = [][]interface{}{{"Type", "Value1", "Value2", "Timestamp"}}
	for _, v := range r.Vitals {
		value2 := ""
		if v.Value2 != nil {
			value2 = *v.Value2
		}
		rows = append(rows, []interface{}{v.Type, v.Value1, value2, v.Timestamp.UTC().Format(time.RFC3339)})
	}
	if err := writeRows(f, "Vitals", rows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
