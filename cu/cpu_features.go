package cu

import (
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks the instruction set extensions available on the
// executing CPU.
type CPUFeatures struct {
	HasSSE4    bool
	HasAVX     bool
	HasAVX2    bool
	HasAVX512F bool
	HasFMA     bool
	HasNEON    bool
}

// Detected as a variable initializer so it is available to the package
// init that names the device.
var cpuFeatures = detectFeatures()

func detectFeatures() CPUFeatures {
	return CPUFeatures{
		HasSSE4:    cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:     cpu.X86.HasAVX,
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasFMA:     cpu.X86.HasFMA,
		HasNEON:    cpu.ARM64.HasASIMD,
	}
}

// Features returns the detected CPU features.
func Features() CPUFeatures {
	return cpuFeatures
}

// featureList returns the names of detected SIMD extensions.
func featureList() []string {
	var features []string
	if cpuFeatures.HasSSE4 {
		features = append(features, "SSE4")
	}
	if cpuFeatures.HasAVX {
		features = append(features, "AVX")
	}
	if cpuFeatures.HasAVX2 {
		features = append(features, "AVX2")
	}
	if cpuFeatures.HasFMA {
		features = append(features, "FMA")
	}
	if cpuFeatures.HasAVX512F {
		features = append(features, "AVX512F")
	}
	if cpuFeatures.HasNEON {
		features = append(features, "NEON")
	}
	return features
}

// deviceName describes the CPU device, including detected SIMD
// extensions.
func deviceName() string {
	features := featureList()
	if len(features) == 0 {
		return "CPU"
	}
	return "CPU (" + strings.Join(features, ", ") + ")"
}
