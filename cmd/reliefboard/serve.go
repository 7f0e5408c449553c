package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/image/font"

	"github.com/TobiSchelling/reliefboard/internal/export"
	"github.com/TobiSchelling/reliefboard/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the board web server on localhost",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		srv, err := server.New(st, newRunner(st), server.Options{
			Location:   cfg.Export.Location(),
			FilePrefix: cfg.Export.FilePrefix,
			Face:       loadFace(),
		})
		if err != nil {
			return err
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(srv, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// loadFace loads the configured snapshot font. Nil means the built-in face.
func loadFace() font.Face {
	return faceFromPath(cfg.Export.FontPath)
}

// faceFromPath warns when PNG snapshots will fall back to the ASCII-only
// built-in face.
func faceFromPath(path string) font.Face {
	if path == "" {
		log.Printf("Warning: export.font_path is not set; Chinese text in PNG snapshots will not render (set it or RELIEFBOARD_FONT_PATH to a CJK font)")
		return nil
	}
	face, err := export.LoadFace(path, 14)
	if err != nil {
		log.Printf("Warning: using built-in ASCII-only font for PNG snapshots: %v", err)
		return nil
	}
	return face
}
