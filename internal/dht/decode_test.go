package dht

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frameOf builds a frame with a correct checksum.
func frameOf(b0, b1, b2, b3 byte) [5]byte {
	return [5]byte{b0, b1, b2, b3, b0 + b1 + b2 + b3}
}

// pulsesFor encodes a frame as the high-pulse widths a sensor would send,
// preceded by the 80us response preamble.
func pulsesFor(f [5]byte) []time.Duration {
	out := []time.Duration{80 * time.Microsecond}
	for _, b := range f {
		for i := 7; i >= 0; i-- {
			if b&(1<<i) != 0 {
				out = append(out, 70*time.Microsecond)
			} else {
				out = append(out, 27*time.Microsecond)
			}
		}
	}
	return out
}

// edgesFor turns pulse widths into alternating edges with 50us low gaps.
func edgesFor(pulses []time.Duration) []Edge {
	var (
		edges []Edge
		at    = 100 * time.Microsecond
	)
	for _, w := range pulses {
		edges = append(edges, Edge{Rising: true, At: at})
		at += w
		edges = append(edges, Edge{Rising: false, At: at})
		at += 50 * time.Microsecond
	}
	return edges
}

func TestDecodeDHT22(t *testing.T) {
	// 45.0% = 450 = 0x01C2, 20.0C = 200 = 0x00C8
	f := frameOf(0x01, 0xC2, 0x00, 0xC8)

	r, err := Decode(DHT22, pulsesFor(f))
	require.NoError(t, err)
	assert.InDelta(t, 20.0, r.Temperature, 0.001)
	assert.InDelta(t, 45.0, r.Humidity, 0.001)
}

func TestDecodeDHT22NegativeTemperature(t *testing.T) {
	// 65.2% = 0x028C, -10.1C = sign bit | 101
	f := frameOf(0x02, 0x8C, 0x80, 0x65)

	r, err := Decode(DHT22, pulsesFor(f))
	require.NoError(t, err)
	assert.InDelta(t, -10.1, r.Temperature, 0.001)
	assert.InDelta(t, 65.2, r.Humidity, 0.001)
}

func TestDecodeDHT11(t *testing.T) {
	f := frameOf(40, 0, 23, 5)

	r, err := Decode(DHT11, pulsesFor(f))
	require.NoError(t, err)
	assert.InDelta(t, 23.5, r.Temperature, 0.001)
	assert.InDelta(t, 40.0, r.Humidity, 0.001)
}

func TestDecodeChecksumMismatch(t *testing.T) {
	f := frameOf(0x01, 0xC2, 0x00, 0xC8)
	f[4]++

	_, err := Decode(DHT22, pulsesFor(f))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChecksum), "got %v", err)
}

func TestDecodeShortFrame(t *testing.T) {
	pulses := pulsesFor(frameOf(0x01, 0xC2, 0x00, 0xC8))[:30]

	_, err := Decode(DHT22, pulses)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTiming)
}

func TestDecodeStretchedBit(t *testing.T) {
	pulses := pulsesFor(frameOf(0x01, 0xC2, 0x00, 0xC8))
	pulses[10] = 300 * time.Microsecond

	_, err := Decode(DHT22, pulses)
	assert.ErrorIs(t, err, ErrTiming)
}

func TestDecodeFrameHumidityOutOfRange(t *testing.T) {
	// 1010 = 101.0%
	_, err := DecodeFrame(DHT22, frameOf(0x03, 0xF2, 0x00, 0xC8))
	assert.ErrorIs(t, err, ErrBus)
	assert.NotErrorIs(t, err, ErrTiming, "pulse timing was fine, the payload is not")
	assert.ErrorContains(t, err, "corrupt payload")
}

func TestEventBufferHoldsWholeRead(t *testing.T) {
	reply := edgesFor(pulsesFor(frameOf(0x01, 0xC2, 0x00, 0xC8)))
	// Plus the falling and rising edge of the host start pulse.
	assert.GreaterOrEqual(t, eventBufferSize, len(reply)+2)

	// A kernel-default buffer loses most of the frame.
	_, err := Decode(DHT22, HighPulses(reply[:16]))
	assert.ErrorIs(t, err, ErrTiming)
}

func TestDecodeUsesLastFortyPulses(t *testing.T) {
	pulses := pulsesFor(frameOf(0x01, 0xC2, 0x00, 0xC8))
	// Extra noise before the preamble is ignored
	pulses = append([]time.Duration{5 * time.Microsecond, 90 * time.Microsecond}, pulses...)

	r, err := Decode(DHT22, pulses)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, r.Temperature, 0.001)
}

func TestHighPulses(t *testing.T) {
	want := []time.Duration{80 * time.Microsecond, 27 * time.Microsecond, 70 * time.Microsecond}
	assert.Equal(t, want, HighPulses(edgesFor(want)))
}

func TestHighPulsesDropsLeadingFallAndTrailingRise(t *testing.T) {
	edges := []Edge{
		{Rising: false, At: 0},
		{Rising: true, At: 10 * time.Microsecond},
		{Rising: false, At: 40 * time.Microsecond},
		{Rising: true, At: 90 * time.Microsecond},
	}
	assert.Equal(t, []time.Duration{30 * time.Microsecond}, HighPulses(edges))
}

func TestDecodeFromEdges(t *testing.T) {
	edges := edgesFor(pulsesFor(frameOf(0x01, 0xC2, 0x00, 0xC8)))

	r, err := Decode(DHT22, HighPulses(edges))
	require.NoError(t, err)
	assert.Equal(t, Reading{Temperature: 20, Humidity: 45}, r)
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("dht22")
	require.NoError(t, err)
	assert.Equal(t, DHT22, m)

	m, err = ParseModel("dht11")
	require.NoError(t, err)
	assert.Equal(t, DHT11, m)

	_, err = ParseModel("am2302x")
	assert.Error(t, err)
}

func TestModelTiming(t *testing.T) {
	assert.Equal(t, 2*time.Second, DHT22.MinInterval())
	assert.Equal(t, time.Second, DHT11.MinInterval())
	assert.Greater(t, DHT11.StartHold(), DHT22.StartHold())
}

func TestFakeSensorScript(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFakeSensor(func() time.Time { return at },
		Result{Reading: Reading{Temperature: 20, Humidity: 45}},
		Result{Err: ErrTiming},
	)

	r, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, float32(20), r.Temperature)

	_, err = f.Read()
	assert.ErrorIs(t, err, ErrTiming)

	// Exhausted: repeats last result
	_, err = f.Read()
	assert.ErrorIs(t, err, ErrTiming)

	assert.Equal(t, []time.Time{at, at, at}, f.Calls())
}

func TestFakeSensorNoResults(t *testing.T) {
	f := NewFakeSensor(nil)
	_, err := f.Read()
	assert.ErrorIs(t, err, ErrBus)
}
