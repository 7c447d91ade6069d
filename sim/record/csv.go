package record

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
)

// WriteCSV writes rows with a header of SweepRow field names.
func WriteCSV(w io.Writer, rows []SweepRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(structs.Names(SweepRow{})); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, row := range rows {
		rec := []string{
			row.RunID,
			row.Variant,
			row.Policy,
			strconv.Itoa(row.Noise),
			strconv.Itoa(row.KeyLen),
			strconv.Itoa(row.Correct),
			strconv.Itoa(row.Unknown),
			strconv.Itoa(row.Wrong),
			strconv.Itoa(row.Conflicts),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "writing csv row for noise %d", row.Noise)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}
