package etw

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

// FiletimeEpoch is the number of 100ns intervals between 1601-01-01 and 1970-01-01.
const FiletimeEpoch = 116444736000000000

// filetimeUnixSeconds is the number of seconds between 1601-01-01 and 1970-01-01.
const filetimeUnixSeconds = FiletimeEpoch / 1e7

// FromFiletime converts a FILETIME (100ns intervals since 1601) to local time.
// Every int64 value maps to a time, zero being 1601-01-01.
func FromFiletime(fileTime int64) time.Time {
	sec, rem := fileTime/1e7, fileTime%1e7
	if rem < 0 {
		sec--
		rem += 1e7
	}
	return time.Unix(sec-filetimeUnixSeconds, rem*100)
}

// FromFiletimeNanos converts a FILETIME to Unix nanoseconds. The result only
// fits an int64 for times between 1678 and 2262.
func FromFiletimeNanos(fileTime int64) int64 {
	return (fileTime - FiletimeEpoch) * 100
}

// FromFiletimeUTC is like FromFiletime but returns UTC.
func FromFiletimeUTC(fileTime int64) time.Time {
	return FromFiletime(fileTime).UTC()
}

// ToFiletime is the inverse of FromFiletime.
func ToFiletime(t time.Time) int64 {
	return (t.Unix()+filetimeUnixSeconds)*1e7 + int64(t.Nanosecond()/100)
}

// fromSystemTime decodes a 16 byte SYSTEMTIME as UTC.
func fromSystemTime(b []byte) time.Time {
	u := func(i int) int { return int(binary.LittleEndian.Uint16(b[2*i:])) }
	// wDayOfWeek (index 2) is derived from the date.
	return time.Date(u(0), time.Month(u(1)), u(3), u(4), u(5), u(6), u(7)*int(time.Millisecond), time.UTC)
}

var errInvalidSID = fmt.Errorf("the SID is not valid")

// appendSID formats a binary SID as "S-R-I-S-S...".
func appendSID(buf, sid []byte) ([]byte, error) {
	// Revision, SubAuthorityCount, IdentifierAuthority[6], SubAuthority[count]
	if len(sid) < 8 {
		return buf, errInvalidSID
	}
	count := int(sid[1])
	// SID_MAX_SUB_AUTHORITIES = 15
	if sid[0] != 1 || count > 15 || len(sid) < 8+4*count {
		return buf, errInvalidSID
	}

	buf = append(buf, 'S', '-')
	buf = strconv.AppendUint(buf, uint64(sid[0]), 10)

	// IdentifierAuthority is a 6 byte big-endian value.
	var authority uint64
	for _, v := range sid[2:8] {
		authority = authority<<8 | uint64(v)
	}
	buf = append(buf, '-')
	buf = strconv.AppendUint(buf, authority, 10)

	for i := range count {
		buf = append(buf, '-')
		buf = strconv.AppendUint(buf, uint64(binary.LittleEndian.Uint32(sid[8+4*i:])), 10)
	}
	return buf, nil
}
