// Package web embeds the browser viewer served by sortvis serve.
//
// The viewer is plain HTML and JavaScript in dist/. It reads the state from
// /api/state, follows frames on /ws and sends reset, run and cancel
// commands over the same socket.
package web

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed dist/*
var assets embed.FS

// Assets returns the viewer files. When devPath names an existing
// directory its live contents are served instead, so the viewer can be
// edited without rebuilding. An empty devPath defaults to "./web/dist".
func Assets(devPath string) fs.FS {
	if devPath == "" {
		devPath = "./web/dist"
	}
	if stat, err := os.Stat(devPath); err == nil && stat.IsDir() {
		return os.DirFS(devPath)
	}
	return Embedded()
}

// AssetsWithBase is Assets with the development directory resolved
// relative to baseDir.
func AssetsWithBase(baseDir string) fs.FS {
	return Assets(filepath.Join(baseDir, "web", "dist"))
}

// Embedded returns the viewer files compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(assets, "dist")
	if err != nil {
		panic("failed to access embedded web assets: " + err.Error())
	}
	return sub
}
