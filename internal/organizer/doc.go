// Package organizer finalizes processed items by moving the rendered video
// into the library under a sanitized, title-cased name, grouped by channel
// when one is known. Subtitle artifacts travel along when configured, the
// staging workspace is removed afterwards, and collisions follow the
// configured overwrite policy.
package organizer
