package cli

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/morph-tools-mcp/internal/detection"
	"github.com/ironsheep/morph-tools-mcp/internal/imaging"
	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

// fileFlags are shared by the commands that read and write image files.
type fileFlags struct {
	output  string
	channel string
}

func (f *fileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the result to this PNG file (required)")
	cmd.Flags().StringVar(&f.channel, "channel", "luma", "channel of color inputs: "+strings.Join(channelNames(), ", "))
	_ = cmd.MarkFlagRequired("output")
}

func channelNames() []string {
	names := make([]string, len(imaging.Channels))
	for i, c := range imaging.Channels {
		names[i] = string(c)
	}
	return names
}

// loadVolumes reads each path as an 8-bit volume of the selected channel.
func (f *fileFlags) loadVolumes(paths ...string) ([]*morph.Image[uint8], error) {
	ch, err := imaging.ParseChannel(f.channel)
	if err != nil {
		return nil, err
	}

	cache := imaging.NewImageCache(len(paths))
	vols := make([]*morph.Image[uint8], len(paths))
	for i, p := range paths {
		img, err := cache.Load(p)
		if err != nil {
			return nil, err
		}
		if vols[i], err = imaging.ToVolume(img, ch); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return vols, nil
}

func (g *globals) filter(ctx context.Context, mode morph.RunMode) *morph.Filter[uint8] {
	f := morph.NewFilter[uint8]()
	f.Connectivity = g.cfg.ConnectivityValue()
	f.Mode = mode
	f.Workers = g.cfg.Workers
	f.MaxIterations = g.cfg.MaxIterations
	f.Logger = loggerFromContext(ctx)
	return f
}

// parseRect parses "x1,y1,x2,y2" into a rectangle with exclusive max.
func parseRect(s string) (image.Rectangle, error) {
	if s == "" {
		return image.Rectangle{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q: want x1,y1,x2,y2", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid rect %q: %w", s, err)
		}
		v[i] = n
	}
	if v[0] >= v[2] || v[1] >= v[3] {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q: x1 must be < x2, y1 must be < y2", s)
	}
	return image.Rect(v[0], v[1], v[2], v[3]), nil
}

func newErodeCmd(g *globals) *cobra.Command {
	var (
		files fileFlags
		mode  string
		rect  string
	)

	cmd := &cobra.Command{
		Use:   "erode MARKER MASK",
		Short: "Run one geodesic erosion pass of MARKER under MASK",
		Long: `Erode MARKER by the elementary structuring element and take the pointwise
maximum with MASK. MARKER must be pixelwise >= MASK and both must have the
same size.

--rect restricts the computed output to x1,y1,x2,y2 (x2 and y2 exclusive);
the written PNG then covers just that rectangle. --mode converge repeats
the pass until nothing changes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := morph.ParseRunMode(mode)
			if err != nil {
				return err
			}
			roi, err := parseRect(rect)
			if err != nil {
				return err
			}
			requested := morph.Region{}
			if !roi.Empty() {
				requested = imaging.RegionFromRect(roi)
			}
			return runFilter(cmd.Context(), g, &files, m, args[0], args[1], requested)
		},
	}

	files.register(cmd)
	cmd.Flags().StringVar(&mode, "mode", "single", "single or converge")
	cmd.Flags().StringVar(&rect, "rect", "", "output rectangle `x1,y1,x2,y2`")
	return cmd
}

func newReconstructCmd(g *globals) *cobra.Command {
	var (
		files         fileFlags
		maxIterations int
	)

	cmd := &cobra.Command{
		Use:   "reconstruct MARKER MASK",
		Short: "Reconstruct MASK from MARKER by erosion",
		Long: `Repeat geodesic erosion of MARKER under MASK until the image stops
changing. MARKER must be pixelwise >= MASK and both must have the same size.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("max-iterations") {
				if maxIterations < 0 {
					return fmt.Errorf("--max-iterations must be >= 0, got %d", maxIterations)
				}
				g.cfg.MaxIterations = maxIterations
			}
			return runFilter(cmd.Context(), g, &files, morph.ToConvergence, args[0], args[1], morph.Region{})
		},
	}

	files.register(cmd)
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "give up after this many passes (default from config, 0 = no limit)")
	return cmd
}

func runFilter(ctx context.Context, g *globals, files *fileFlags, mode morph.RunMode, markerPath, maskPath string, requested morph.Region) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	vols, err := files.loadVolumes(markerPath, maskPath)
	if err != nil {
		return err
	}
	marker, mask := vols[0], vols[1]

	res, err := g.filter(ctx, mode).Run(ctx, marker, mask, requested)
	if err != nil {
		return err
	}
	if res.Plan.Output.Empty() {
		return fmt.Errorf("rect %s does not overlap the image", requested)
	}

	if err := imaging.SaveVolume(files.output, res.Output); err != nil {
		return err
	}
	logChanges(ctx, marker.SubImage(res.Plan.Output), res.Output)
	prog.done(fmt.Sprintf("Wrote %s after %d iterations", files.output, res.Iterations))
	return nil
}

func newFillHolesCmd(g *globals) *cobra.Command {
	var files fileFlags

	cmd := &cobra.Command{
		Use:   "fill-holes IMAGE",
		Short: "Fill dark regions not connected to the image border",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			prog := newProgress(logger)

			vols, err := files.loadVolumes(args[0])
			if err != nil {
				return err
			}
			res, err := detection.FillHoles(ctx, vols[0], detection.Options{
				Connectivity:  g.cfg.ConnectivityValue(),
				Workers:       g.cfg.Workers,
				MaxIterations: g.cfg.MaxIterations,
				Logger:        logger,
			})
			if err != nil {
				return err
			}
			if err := imaging.SaveVolume(files.output, res.Output); err != nil {
				return err
			}
			logChanges(ctx, vols[0], res.Output)
			prog.done(fmt.Sprintf("Wrote %s after %d iterations", files.output, res.Iterations))
			return nil
		},
	}

	files.register(cmd)
	return cmd
}

func logChanges(ctx context.Context, before, after *morph.Image[uint8]) {
	st, err := imaging.CompareVolumes(before, after)
	if err != nil {
		return
	}
	loggerFromContext(ctx).Debug("pixels changed",
		"changed", st.ChangedPixels,
		"total", st.TotalPixels,
		"max_delta", st.MaxDelta)
}
