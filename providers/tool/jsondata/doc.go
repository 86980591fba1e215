// Package jsondata converts local JSON files into CSV and publishes the
// conversion as the get_json_data tool.
package jsondata
