// Package mcpserver publishes a tool catalog as a Model Context Protocol
// server built on mcp-go.
//
// [New] registers each tool with the JSON schema of its input type. A tool
// error is returned to the client as an error result carrying the message.
// [Server.Serve] runs the stdio, SSE or streamable HTTP transport until the
// context is cancelled.
package mcpserver
