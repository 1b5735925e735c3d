package environment

import (
	"encoding/binary"
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

var ErrInvalidCalibration = errors.New("bmp280: invalid calibration")

// calibration block length starting at 0x88 (dig_T1..dig_P9)
const calibrationLen = 24

// Calibration holds the factory trimming parameters burned into the BMP280 NVM.
type Calibration struct {
	T1 uint16 `yaml:"dig_t1" json:"dig_t1"`
	T2 int16  `yaml:"dig_t2" json:"dig_t2"`
	T3 int16  `yaml:"dig_t3" json:"dig_t3"`
	P1 uint16 `yaml:"dig_p1" json:"dig_p1"`
	P2 int16  `yaml:"dig_p2" json:"dig_p2"`
	P3 int16  `yaml:"dig_p3" json:"dig_p3"`
	P4 int16  `yaml:"dig_p4" json:"dig_p4"`
	P5 int16  `yaml:"dig_p5" json:"dig_p5"`
	P6 int16  `yaml:"dig_p6" json:"dig_p6"`
	P7 int16  `yaml:"dig_p7" json:"dig_p7"`
	P8 int16  `yaml:"dig_p8" json:"dig_p8"`
	P9 int16  `yaml:"dig_p9" json:"dig_p9"`
}

// ParseCalibration decodes the 24 byte block read from 0x88. Each coefficient is stored
// LSB first.
func ParseCalibration(buf []byte) (Calibration, error) {
	if len(buf) != calibrationLen {
		return Calibration{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidCalibration, len(buf), calibrationLen)
	}
	s16 := func(i int) int16 { return int16(binary.LittleEndian.Uint16(buf[i:])) }
	c := Calibration{
		T1: binary.LittleEndian.Uint16(buf[0:]),
		T2: s16(2),
		T3: s16(4),
		P1: binary.LittleEndian.Uint16(buf[6:]),
		P2: s16(8),
		P3: s16(10),
		P4: s16(12),
		P5: s16(14),
		P6: s16(16),
		P7: s16(18),
		P8: s16(20),
		P9: s16(22),
	}
	return c, c.Validate()
}

// Validate rejects blocks read before the NVM copy finished, which come back as zeros.
func (c Calibration) Validate() error {
	if c.T1 == 0 || c.P1 == 0 {
		return fmt.Errorf("%w (dig_T1=%d dig_P1=%d)", ErrInvalidCalibration, c.T1, c.P1)
	}
	return nil
}

// CompensateTemperature returns the temperature in hundredths of a degree Celsius and
// the fine temperature that pressure compensation needs.
func (c Calibration) CompensateTemperature(rawT int32) (centi int32, tFine int32) {
	t1 := int32(c.T1)
	var1 := (((rawT >> 3) - (t1 << 1)) * int32(c.T2)) >> 11
	d := (rawT >> 4) - t1
	var2 := (((d * d) >> 12) * int32(c.T3)) >> 14
	tFine = var1 + var2
	return (tFine*5 + 128) >> 8, tFine
}

// CompensatePressure returns the pressure in Pa using the 32-bit integer routine of the
// datasheet. tFine must come from the same measurement. A zero divisor yields 0.
func (c Calibration) CompensatePressure(rawP, tFine int32) uint32 {
	var1 := (tFine >> 1) - 64000
	var2 := (((var1 >> 2) * (var1 >> 2)) >> 11) * int32(c.P6)
	var2 += (var1 * int32(c.P5)) << 1
	var2 = (var2 >> 2) + (int32(c.P4) << 16)
	var1 = (((int32(c.P3) * (((var1 >> 2) * (var1 >> 2)) >> 13)) >> 3) + ((int32(c.P2) * var1) >> 1)) >> 18
	var1 = ((32768 + var1) * int32(c.P1)) >> 15
	if var1 == 0 {
		return 0
	}
	p := uint32((1048576-rawP)-(var2>>12)) * 3125
	if p < 0x80000000 {
		p = (p << 1) / uint32(var1)
	} else {
		p = (p / uint32(var1)) * 2
	}
	var1 = (int32(c.P9) * int32(((p>>3)*(p>>3))>>13)) >> 12
	var2 = (int32(p>>2) * int32(c.P8)) >> 13
	return uint32(int32(p) + ((var1 + var2 + int32(c.P7)) >> 4))
}

// Compensate converts one raw temperature/pressure pair.
func (c Calibration) Compensate(rawT, rawP int32) Reading {
	t, tFine := c.CompensateTemperature(rawT)
	return Reading{Temperature: t, Pressure: c.CompensatePressure(rawP, tFine)}
}

// Reading is a compensated measurement.
type Reading struct {
	// Temperature in 0.01 °C
	Temperature int32 `yaml:"temperature" json:"temperature"`
	// Pressure in Pa
	Pressure uint32 `yaml:"pressure" json:"pressure"`
}

// Env expresses the reading in periph units.
func (r Reading) Env() physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(r.Temperature)*10*physic.MilliKelvin,
		Pressure:    physic.Pressure(r.Pressure) * physic.Pascal,
	}
}

// Celsius returns the temperature in degrees.
func (r Reading) Celsius() float64 { return float64(r.Temperature) / 100 }

// HectoPascal returns the pressure in hPa.
func (r Reading) HectoPascal() float64 { return float64(r.Pressure) / 100 }
