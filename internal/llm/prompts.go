package llm

import "fmt"

// SystemPrompt frames every product conversation.
const SystemPrompt = "You are a helpful nutrition assistant."

const productCheckTemplate = `You are an expert in food products. I have a product named "%s". 
Does this product exist? If yes, give a short description and main category. 
If unknown, say "Product not found".`

// ProductCheckPrompt asks the model whether a product with the guessed name exists.
func ProductCheckPrompt(productName string) string {
	return fmt.Sprintf(productCheckTemplate, productName)
}
