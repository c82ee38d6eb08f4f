// Package platform provides cross-platform filesystem checks used before
// writing output files. On Unix systems it asks the kernel through access(2);
// elsewhere it probes the directory with a short-lived temp file.
package platform
