package simd

import (
	"os"
	"runtime"
	"strings"
)

// ISA represents the kernel family selected for the running CPU.
type ISA uint8

const (
	// Generic is the scalar reference implementation.
	Generic ISA = iota
	// NEON selects 4-lane kernels (128-bit registers).
	NEON
	// AVX2 selects 8-lane kernels (256-bit registers).
	AVX2
	// AVX512 selects 16-lane kernels (512-bit registers).
	AVX512
)

// String returns the string representation of an ISA.
func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case NEON:
		return "neon"
	case AVX2:
		return "avx2"
	case AVX512:
		return "avx512"
	default:
		return "unknown"
	}
}

// Lanes returns the number of float32 elements consumed per unrolled step.
func (i ISA) Lanes() int {
	switch i {
	case NEON:
		return 4
	case AVX2:
		return 8
	case AVX512:
		return 16
	default:
		return 1
	}
}

// ParseISA parses a string into an ISA value.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "neon":
		return NEON, true
	case "avx2":
		return AVX2, true
	case "avx512":
		return AVX512, true
	default:
		return Generic, false
	}
}

// Package-level state, written only during init.
var (
	activeISA   ISA
	hasOverride bool

	hasASIMD    bool
	hasAVX2     bool
	hasAVX512F  bool
	hasAVX512BW bool
)

// initCapabilities is called from the platform-specific init functions
// after CPU features are detected.
func initCapabilities() {
	if override := os.Getenv("IVFGO_SIMD"); override != "" {
		if isa, ok := ParseISA(override); ok {
			hasOverride = true
			if isISAAvailable(isa) {
				useISA(isa)
				return
			}
		}
	}
	useISA(selectBestISA())
}

func isISAAvailable(isa ISA) bool {
	switch isa {
	case Generic:
		return true
	case NEON:
		return hasASIMD
	case AVX2:
		return hasAVX2
	case AVX512:
		return hasAVX512F && hasAVX512BW
	default:
		return false
	}
}

func selectBestISA() ISA {
	switch runtime.GOARCH {
	case "arm64":
		if hasASIMD {
			return NEON
		}
	case "amd64":
		if hasAVX512F && hasAVX512BW {
			return AVX512
		}
		if hasAVX2 {
			return AVX2
		}
	}
	return Generic
}

// ActiveISA returns the currently active ISA.
func ActiveISA() ISA {
	return activeISA
}

// IsOverridden returns true if IVFGO_SIMD was set to a recognised value.
func IsOverridden() bool {
	return hasOverride
}

// HasASIMD returns true if ARM64 NEON is available.
func HasASIMD() bool {
	return hasASIMD
}

// HasAVX2 returns true if x86-64 AVX2+FMA is available.
func HasAVX2() bool {
	return hasAVX2
}

// HasAVX512 returns true if x86-64 AVX-512 (F+BW) is available.
func HasAVX512() bool {
	return hasAVX512F && hasAVX512BW
}
