// Package mssys declares the kernel32 virtual memory entry points used by
// package mem. Only the Windows build has any content.
package mssys
