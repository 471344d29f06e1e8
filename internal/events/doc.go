// Package events publishes one record per handled chat turn so that other
// services can follow routing decisions and agent outcomes.
package events
