// Package docs documents the unreact command line tool.
//
// Unreact builds a static site from html/template pages, CSS or SCSS styles
// and public assets. In development it serves the generated site, watches the sources,
// rebuilds on every change and tells open browser tabs to reload.
//
// # Quick Start
//
//	// Build the production site into ./build
//	unreact build
//
//	// Build the development variant into ./.devbuild
//	unreact build --dev
//
//	// Serve, watch and live-reload
//	unreact dev
//
//	// Print the effective configuration
//	unreact config
//
// # Project Layout
//
//	templates/   html/template files, named by path without extension
//	styles/      CSS and SCSS files, written to styles/<name>/style.css;
//	             SCSS needs the Dart Sass binary (sass) on PATH
//	public/      copied verbatim to public/
//
// # Configuration
//
// Configuration is read from .unreact.yml in the working directory, or from
// the file named by --config or UNREACT_CONFIG_FILE. Every key can be
// overridden with an UNREACT_ environment variable, for example
// UNREACT_SERVER_PORT=8000.
//
//	server:
//	  host: 127.0.0.1
//	  port: 3000
//	  ws_port: 3001
//	watch:
//	  min_interval: 500ms
//	  settle_delay: 300ms
//	site:
//	  url: https://example.com/
//	  globals:
//	    name: my blog
//	  routes:
//	    - path: ""
//	      template: page
//	      data:
//	        title: Home
//	    - path: hello
//	      raw: <p>hello</p>
//	  not_found:
//	    template: "404"
//
// Templates get the route data plus the globals under the GLOBAL key, and the
// helpers URL, concat and css.
//
// # Live Reload
//
// Every generated page gets a small script appended that connects to the
// websocket port. The server sends the session start time on connect and the
// text "reload" after each rebuild.
package docs
