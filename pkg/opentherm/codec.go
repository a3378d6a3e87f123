package opentherm

import (
	"strconv"
	"strings"
)

// Bit positions follow the OpenTherm protocol specification v2.2.
var (
	masterStatusFlags = []string{
		"CH enable",
		"DHW enable",
		"Cooling enable",
		"OTC active",
		"CH2 enable",
		"Summer/winter mode",
		"DHW blocking",
	}

	slaveStatusFlags = []string{
		"Fault indication",
		"CH mode",
		"DHW mode",
		"Flame status",
		"Cooling status",
		"CH2 mode",
		"Diagnostic/service indication",
		"Electricity production",
	}

	slaveConfigFlags = []string{
		"DHW present",
		"Control type",
		"Cooling configuration",
		"DHW configuration",
		"Master low-off&pump control",
		"CH2 present",
		"Remote water filling function",
		"Heat/cool mode control",
	}
)

// MasterStatusFlags returns the master status flag names in bit order.
func MasterStatusFlags() []string { return append([]string(nil), masterStatusFlags...) }

// SlaveStatusFlags returns the slave status flag names in bit order.
func SlaveStatusFlags() []string { return append([]string(nil), slaveStatusFlags...) }

// SlaveConfigFlags returns the slave configuration flag names in bit order.
func SlaveConfigFlags() []string { return append([]string(nil), slaveConfigFlags...) }

// Status is the decoded value of data ID 0.
type Status struct {
	Master FlagSet `json:"master_status"`
	Slave  FlagSet `json:"slave_status"`
}

// SlaveConfiguration is the decoded value of data ID 3.
type SlaveConfiguration struct {
	Config   FlagSet `json:"slave_config"`
	MemberID uint8   `json:"slave_member_id"`
}

// ParseUint16 parses a base-16 value with an optional 0x prefix.
func ParseUint16(s string) (uint16, error) {
	clean := strings.TrimSpace(s)
	if len(clean) > 1 && clean[0] == '0' && (clean[1] == 'x' || clean[1] == 'X') {
		clean = clean[2:]
	}
	if clean == "" {
		return 0, ErrInvalidHex
	}
	v, err := strconv.ParseUint(clean, 16, 16)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, ErrOutOfRange
		}
		return 0, ErrInvalidHex
	}
	return uint16(v), nil
}

func split(kind EncodingKind, hex string) (hi, lo uint8, err error) {
	v, err := ParseUint16(hex)
	if err != nil {
		return 0, 0, &DecodeError{Kind: kind, Input: hex, Err: err}
	}
	return uint8(v >> 8), uint8(v), nil
}

// DecodeFixedPoint88 decodes an F8.8 value: the high byte is the unsigned
// integer part and the low byte the fractional part over 256.
func DecodeFixedPoint88(hex string) (float64, error) {
	hi, lo, err := split(FixedPoint88, hex)
	if err != nil {
		return 0, err
	}
	return float64(hi) + float64(lo)/256.0, nil
}

// DecodeMasterSlaveStatus decodes the master (high byte) and slave
// (low byte) status flags of data ID 0.
func DecodeMasterSlaveStatus(hex string) (Status, error) {
	hi, lo, err := split(MasterSlaveStatus, hex)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Master: newFlagSet(masterStatusFlags, hi),
		Slave:  newFlagSet(slaveStatusFlags, lo),
	}, nil
}

// DecodeSlaveConfig decodes the configuration flags (high byte) and the
// member ID (low byte) of data ID 3.
func DecodeSlaveConfig(hex string) (SlaveConfiguration, error) {
	hi, lo, err := split(SlaveConfig, hex)
	if err != nil {
		return SlaveConfiguration{}, err
	}
	return SlaveConfiguration{
		Config:   newFlagSet(slaveConfigFlags, hi),
		MemberID: lo,
	}, nil
}
