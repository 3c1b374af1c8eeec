// Command xsdgen flattens XML schemas into column maps and generates random
// XML documents from them.
package main

func main() {
	Execute()
}
