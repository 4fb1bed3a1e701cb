// Package taxonomy buckets confirmed planets into thematic categories from
// their measured radius, orbital period, and equilibrium temperature.
package taxonomy
