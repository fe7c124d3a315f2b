package deps

import "clipper/internal/config"

// ToolRequirements lists the binaries the pipeline needs for the given configuration.
func ToolRequirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "yt-dlp", Command: cfg.Tools.YtDlp, Description: "Resolves metadata and downloads sources"},
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "Audio extraction and segment cuts"},
		{Name: "FFprobe", Command: cfg.Tools.FFprobe, Description: "Duration probe when metadata lacks one", Optional: true},
	}
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
