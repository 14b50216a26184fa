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
	"fmt"
	"strconv"
	"strings"
	"time"
)

// A Timestamp is a simulation snapshot time, counted in whole seconds from
// midnight of the first simulation day. The textual representation used
// throughout the snapshot dataset is '[DD@]H:MM[:SS]', for example '7:30',
// '23:59:30', or '1@0:00'.
type Timestamp int

// ParseTimestamp parses a snapshot timestamp in '[DD@]H:MM[:SS]' format.
func ParseTimestamp(s string) (Timestamp, error) {
	hms := s
	var day int
	if i := strings.IndexByte(s, '@'); i >= 0 {
		var err error
		day, err = strconv.Atoi(s[:i])
		if err != nil {
			return 0, fmt.Errorf("loopheat: invalid day in timestamp %q: %v", s, err)
		}
		hms = s[i+1:]
	}

	parts := strings.Split(hms, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("loopheat: invalid timestamp %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("loopheat: invalid hour in timestamp %q: %v", s, err)
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("loopheat: invalid minute in timestamp %q: %v", s, err)
	}
	var sec int
	if len(parts) == 3 {
		sec, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, fmt.Errorf("loopheat: invalid second in timestamp %q: %v", s, err)
		}
	}
	return Timestamp(day*86400 + hour*3600 + min*60 + sec), nil
}

// String formats t in the dataset's '[DD@]H:MM[:SS]' representation:
// the day part is omitted when zero and the seconds part is omitted
// when zero, matching the format found in the snapshot files.
func (t Timestamp) String() string {
	day := int(t) / 86400
	rem := int(t) % 86400
	hour := rem / 3600
	rem %= 3600
	min := rem / 60
	sec := rem % 60

	var b strings.Builder
	if day > 0 {
		fmt.Fprintf(&b, "%02d@", day)
	}
	fmt.Fprintf(&b, "%d:%02d", hour, min)
	if sec > 0 {
		fmt.Fprintf(&b, ":%02d", sec)
	}
	return b.String()
}

// Hour returns the hour of the dataset that t falls in, counting
// continuously across days (the first hour of the second day is hour 24).
func (t Timestamp) Hour() int { return int(t) / 3600 }

// OnHour reports whether t lies exactly on a whole hour.
func (t Timestamp) OnHour() bool { return int(t)%3600 == 0 }

// Duration returns t as a time.Duration since midnight of the first
// simulation day.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t) * time.Second
}

// MarshalCSV implements gocsv marshalling for snapshot files.
func (t Timestamp) MarshalCSV() (string, error) { return t.String(), nil }

// UnmarshalCSV implements gocsv unmarshalling for snapshot files.
func (t *Timestamp) UnmarshalCSV(s string) error {
	tt, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = tt
	return nil
}
