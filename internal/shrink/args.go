package shrink

import (
	"fmt"
	"math"
	"strconv"
)

// BuildArgs maps normalized options plus the resolved compatibility version
// to the exact Ghostscript argument vector. Pure and deterministic; numeric
// validation is the caller's job (see ShrinkOptions.Normalize).
//
// The output-file argument precedes the positional input path, matching the
// grammar the pdfwrite device expects.
func BuildArgs(options ShrinkOptions, pdfVersion, outputPath, inputPath string) []string {
	resolution := strconv.Itoa(int(math.Round(options.ResolutionDPI)))
	threshold := strconv.FormatFloat(options.DownsampleThreshold, 'g', -1, 64)

	args := []string{
		"-dBATCH",
		"-dNOPAUSE",
		"-dSAFER",
		"-sDEVICE=pdfwrite",
		"-dPreserveAnnots=false",
		"-dEmbedAllFonts=true",
		"-dSubsetFonts=true",
		"-dAutoRotatePages=/None",
		"-dCompatibilityLevel=" + pdfVersion,
		"-dPDFSETTINGS=/" + options.QualityPreset,
		"-dColorImageDownsampleType=/Bicubic",
		fmt.Sprintf("-dColorImageResolution=%s", resolution),
		fmt.Sprintf("-dColorImageDownsampleThreshold=%s", threshold),
		"-dGrayImageDownsampleType=/Bicubic",
		fmt.Sprintf("-dGrayImageResolution=%s", resolution),
		fmt.Sprintf("-dGrayImageDownsampleThreshold=%s", threshold),
		"-dMonoImageDownsampleType=/Subsample",
		fmt.Sprintf("-dMonoImageResolution=%s", resolution),
		fmt.Sprintf("-dMonoImageDownsampleThreshold=%s", threshold),
	}

	// Force device-gray conversion and override embedded color profiles
	if options.Grayscale {
		args = append(args,
			"-sProcessColorModel=DeviceGray",
			"-sColorConversionStrategy=Gray",
			"-dOverrideICC",
		)
	}

	args = append(args, "-sOutputFile="+outputPath, inputPath)

	return args
}
