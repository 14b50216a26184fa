/*
Copyright © 2020 the Loopheat authors.
This file is part of Loopheat.

Loopheat is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Loopheat is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Loopheat.  If not, see <http://www.gnu.org/licenses/>.
*/

package loopheat

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// LinkVolumes holds simulated hourly traffic volumes
// [vehicles/hour] keyed by link ID.
type LinkVolumes struct {
	Volumes map[int]float64
}

// ReadLinkVolumes loads an hourly link volume CSV file. Rows hold the
// link ID, county, zone, road type, length, volume, average speed,
// description, and average grade; only the link ID (column 0) and
// volume (column 5) are used.
func ReadLinkVolumes(r io.Reader) (*LinkVolumes, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loopheat: reading link volumes: %v", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("loopheat: link volume file is empty")
	}

	v := &LinkVolumes{Volumes: make(map[int]float64, len(rows)-1)}
	for _, row := range rows[1:] { // skip header
		if len(row) < 6 {
			return nil, fmt.Errorf("loopheat: link volume row has %d columns, want at least 6", len(row))
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading link volume ID: %v", err)
		}
		vol, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return nil, fmt.Errorf("loopheat: reading volume for link %d: %v", id, err)
		}
		v.Volumes[id] = vol
	}
	return v, nil
}

// VolumeFileName returns the conventional name of the link volume file
// for one hour of one simulated July 2017 day.
func VolumeFileName(day, hour int) string {
	return fmt.Sprintf("2017-07-%02d_%02d_volume.csv", day, hour)
}
