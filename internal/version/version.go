// ABOUTME: Version information
// ABOUTME: Reported by --version and the status display
package version

// Version is the release version
const Version = "1.9.0"

// Product is the program name shown to users
const Product = "AdPlay"

// Manufacturer is the project credited in version output
const Manufacturer = "adplay-go"
